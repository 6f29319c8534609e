// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quant-backtester/internal/backtest"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/models"
	"quant-backtester/internal/strategy"
	"quant-backtester/pkg/utils"
)

func newOptionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options <ticker>",
		Short: "Run an options strategy backtest",
		Long: `Simulate one options strategy cycle on a ticker: open at the start
date, mark to market daily with Black-Scholes, and settle at expiry.

Strikes are selected relative to the entry spot (ATM, OTM_5%, ITM_10%, ...)
per the strategy definition; pass --strike leg_N=VALUE to override a leg
with a different selector or an absolute strike.`,
		Example: `  backtester backtest options AAPL --strategy long_call --start 2023-01-02 --dte 30
  backtester backtest options SPY --strategy iron_condor --dte 45 --size 2 --save
  backtester backtest options MSFT --strategy straddle --vol-model fixed --fixed-vol 0.25
  backtester backtest options AAPL --strategy long_put --strike leg_0=OTM_10%`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			strategyType, _ := cmd.Flags().GetString("strategy")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			capital, _ := cmd.Flags().GetFloat64("capital")
			dte, _ := cmd.Flags().GetInt("dte")
			size, _ := cmd.Flags().GetInt("size")
			volModel, _ := cmd.Flags().GetString("vol-model")
			strikeFlags, _ := cmd.Flags().GetStringSlice("strike")

			overrides, err := parseStrikeOverrides(strikeFlags)
			if err != nil {
				output.Error("Invalid strike override: %v", err)
				return err
			}

			req := backtest.OptionsRequest{
				Ticker:           strings.ToUpper(args[0]),
				StrategyType:     strategyType,
				StartDate:        start,
				EndDate:          end,
				InitialCapital:   capital,
				DaysToExpiration: dte,
				StrikeSelection:  overrides,
				PositionSize:     size,
				VolatilityModel:  volModel,
			}
			if cmd.Flags().Changed("fixed-vol") {
				fixedVol, _ := cmd.Flags().GetFloat64("fixed-vol")
				req.FixedVolatility = &fixedVol
			}

			result, err := app.Engine.RunOptions(ctx, req)
			if err != nil {
				output.Error("Backtest failed: %v", err)
				return err
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				if id, err := saveRun(ctx, app, cmd, models.RunOptions, req, result); err != nil {
					output.Warning("Could not save run: %v", err)
				} else if !output.IsJSON() {
					output.Dim("Saved as run %s", id)
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			showCurve, _ := cmd.Flags().GetBool("curve")
			return displayOptionsResult(output, result, showCurve)
		},
	}

	cmd.Flags().String("strategy", string(strategy.LongCall), "strategy type (see 'backtester strategies')")
	cmd.Flags().String("start", "", "entry date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end of data window (YYYY-MM-DD)")
	cmd.Flags().Float64("capital", 10000, "initial capital in dollars")
	cmd.Flags().Int("dte", 30, "days to expiration at entry")
	cmd.Flags().Int("size", 1, "number of contracts per leg")
	cmd.Flags().String("vol-model", string(backtest.VolModelHistorical), "volatility model: historical or fixed")
	cmd.Flags().Float64("fixed-vol", 0.3, "volatility for the fixed model")
	cmd.Flags().StringSlice("strike", nil, "per-leg strike override, e.g. leg_0=OTM_5% or leg_1=105")
	cmd.Flags().Bool("save", false, "save the run to history")
	cmd.Flags().Bool("curve", false, "print the daily P&L table")

	return cmd
}

// parseStrikeOverrides turns leg_N=VALUE pairs into the override map.
func parseStrikeOverrides(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || !strings.HasPrefix(key, "leg_") || value == "" {
			return nil, fmt.Errorf("expected leg_N=VALUE, got %q", f)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func displayOptionsResult(output *Output, result *backtest.OptionsResult, showCurve bool) error {
	stats := result.Stats

	output.Bold("Options Backtest: %s", stats.Strategy)
	output.Dim("  %s to %s (%d days held)", stats.EntryDate, stats.ExitDate, stats.DaysHeld)
	output.Println()

	output.Printf("  Initial Capital: %s\n", utils.FormatUSD(stats.InitialCapital))
	output.Printf("  Final Value:     %s\n", output.BoldText(utils.FormatUSD(stats.FinalValue)))
	output.Printf("  Total P&L:       %s\n", output.Signed(stats.TotalPnL, utils.FormatPnL(stats.TotalPnL)))
	output.Printf("  Total Return:    %s\n", output.Signed(stats.TotalReturn, utils.FormatPercent(stats.TotalReturn)))
	output.Printf("  Max Profit:      %s\n", output.Signed(stats.MaxProfit, utils.FormatPnL(stats.MaxProfit)))
	output.Printf("  Max Loss:        %s\n", output.Signed(stats.MaxLoss, utils.FormatPnL(stats.MaxLoss)))
	output.Printf("  Max Drawdown:    %s\n", utils.FormatUSD(stats.MaxDrawdown))
	output.Printf("  Win Rate:        %.0f%%\n", stats.WinRate)
	if len(stats.BreakevenPoints) > 0 {
		points := make([]string, len(stats.BreakevenPoints))
		for i, b := range stats.BreakevenPoints {
			points[i] = fmt.Sprintf("%.2f", b)
		}
		output.Printf("  Breakevens:      %s\n", strings.Join(points, ", "))
	}
	output.Println()

	output.Bold("Trades")
	table := NewTable(output, "Date", "Action", "Spot", "Strikes", "Net")
	for _, trade := range result.Trades {
		net := ""
		if trade.NetPremium != nil {
			net = utils.FormatUSD(*trade.NetPremium)
		} else if trade.FinalPnL != nil {
			net = output.Signed(*trade.FinalPnL, utils.FormatPnL(*trade.FinalPnL))
		}
		table.AddRow(
			trade.Date,
			string(trade.Action),
			fmt.Sprintf("%.2f", trade.SpotPrice),
			formatStrikes(trade.Strikes),
			net,
		)
	}
	table.Render()

	if showCurve && len(result.DailyPnL) > 0 {
		output.Println()
		output.Bold("Daily P&L")
		curve := NewTable(output, "Date", "Spot", "DTE", "P&L", "Position Value")
		for _, p := range result.DailyPnL {
			curve.AddRow(
				p.Date,
				fmt.Sprintf("%.2f", p.SpotPrice),
				fmt.Sprintf("%d", p.DTE),
				output.Signed(p.DailyPnL, utils.FormatPnL(p.DailyPnL)),
				utils.FormatUSD(p.PositionValue),
			)
		}
		curve.Render()
	}

	return nil
}

func formatStrikes(strikes []float64) string {
	parts := make([]string, len(strikes))
	for i, k := range strikes {
		parts[i] = fmt.Sprintf("%.0f", k)
	}
	return strings.Join(parts, "/")
}
