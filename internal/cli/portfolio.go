// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quant-backtester/internal/backtest"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/models"
	"quant-backtester/pkg/utils"
)

// addBacktestCommands adds the backtest command group.
func addBacktestCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run backtests",
		Long:  "Run portfolio or options strategy backtests over local price data.",
	}
	cmd.AddCommand(newPortfolioCmd(app))
	cmd.AddCommand(newOptionsCmd(app))
	rootCmd.AddCommand(cmd)
}

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio <tickers>",
		Short: "Run a monthly-rebalanced portfolio backtest",
		Long: `Run a portfolio backtest over comma-separated tickers.

Weights default to equal allocation; pass --weights to override. Prices
are resampled to monthly closes and the equity curve is computed from
weighted monthly returns.`,
		Example: `  backtester backtest portfolio AAPL,MSFT,GOOG --start 2020-01-01 --end 2023-12-31
  backtester backtest portfolio AAPL,TLT --weights 0.7,0.3 --capital 250000 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			tickers := splitUpper(args[0])
			weightsFlag, _ := cmd.Flags().GetString("weights")
			weights, err := parseWeights(weightsFlag, len(tickers))
			if err != nil {
				output.Error("Invalid weights: %v", err)
				return err
			}

			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			capital, _ := cmd.Flags().GetFloat64("capital")

			req := backtest.PortfolioRequest{
				Tickers:            tickers,
				Weights:            weights,
				StartDate:          start,
				EndDate:            end,
				InitialCapital:     capital,
				RebalanceFrequency: "monthly",
			}

			result, err := app.Engine.RunPortfolio(ctx, req)
			if err != nil {
				output.Error("Backtest failed: %v", err)
				return err
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				if id, err := saveRun(ctx, app, cmd, models.RunPortfolio, req, result); err != nil {
					output.Warning("Could not save run: %v", err)
				} else if !output.IsJSON() {
					output.Dim("Saved as run %s", id)
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			return displayPortfolioResult(output, req, result)
		},
	}

	cmd.Flags().String("weights", "", "comma-separated weights summing to 1.0 (default: equal)")
	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64("capital", 100000, "initial capital in dollars")
	cmd.Flags().Bool("save", false, "save the run to history")

	return cmd
}

func displayPortfolioResult(output *Output, req backtest.PortfolioRequest, result *backtest.PortfolioResult) error {
	output.Bold("Portfolio Backtest: %s", strings.Join(req.Tickers, ", "))
	output.Dim("  %s to %s", result.DateRange.Start, result.DateRange.End)
	output.Println()

	displayPortfolioStats(output, result.Stats)
	output.Println()

	output.Bold("Individual Holdings")
	table := NewTable(output, "Ticker", "Weight", "Total Return", "CAGR")
	for _, ticker := range req.Tickers {
		s, ok := result.IndividualStats[ticker]
		if !ok {
			continue
		}
		table.AddRow(
			ticker,
			fmt.Sprintf("%.0f%%", s.Weight*100),
			output.Signed(s.TotalReturn, utils.FormatPercent(s.TotalReturn)),
			output.Signed(s.CAGR, utils.FormatPercent(s.CAGR)),
		)
	}
	table.Render()

	if len(result.BenchmarkCurve) > 0 {
		output.Println()
		output.Bold("Benchmark")
		output.Printf("  Total Return: %s\n", utils.FormatPercent(result.BenchmarkStats.TotalReturn))
		output.Printf("  Correlation:  %.2f\n", result.Stats.BenchmarkCorrelation)
	}

	return nil
}

func displayPortfolioStats(output *Output, stats backtest.PortfolioStats) {
	output.Printf("  Initial Capital: %s\n", utils.FormatUSD(stats.InitialCapital))
	output.Printf("  Final Value:     %s\n", output.BoldText(utils.FormatUSD(stats.FinalValue)))
	output.Printf("  Total Return:    %s\n", output.Signed(stats.TotalReturn, utils.FormatPercent(stats.TotalReturn)))
	output.Printf("  CAGR:            %s\n", output.Signed(stats.CAGR, utils.FormatPercent(stats.CAGR)))
	output.Printf("  Max Drawdown:    %s\n", output.Red(fmt.Sprintf("%.2f%%", stats.MaxDrawdown)))
	output.Printf("  Volatility:      %.2f%%\n", stats.AnnualizedVolatility)
	output.Printf("  Sharpe Ratio:    %s\n", utils.FormatRatio(stats.SharpeRatio))
	output.Printf("  Sortino Ratio:   %s\n", utils.FormatRatio(stats.SortinoRatio))
	output.Printf("  Best Year:       %s\n", output.Green(utils.FormatPercent(stats.BestYear)))
	output.Printf("  Worst Year:      %s\n", output.Red(utils.FormatPercent(stats.WorstYear)))
}

// splitUpper splits a comma-separated list and upper-cases each entry.
func splitUpper(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// parseWeights parses a comma-separated weight list, or builds an equal
// allocation when the flag is empty.
func parseWeights(s string, n int) ([]float64, error) {
	if s == "" {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights, nil
	}

	parts := strings.Split(s, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing weight %q: %w", p, err)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// saveRun persists a request/result pair to the run store.
func saveRun(ctx context.Context, app *App, cmd *cobra.Command, kind models.RunKind, req, result interface{}) (string, error) {
	if app.Store == nil {
		return "", fmt.Errorf("run store unavailable")
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	run := &models.BacktestRun{
		UserID:  app.userID(cmd),
		Kind:    kind,
		Request: reqJSON,
		Result:  resultJSON,
	}
	if err := app.Store.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}
