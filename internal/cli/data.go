// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quant-backtester/internal/logging"
	"quant-backtester/internal/marketdata"
)

// addDataCommands adds local price data commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage local price data",
		Long: `Manage the local price data directory.

Each ticker lives in its own CSV file with date and close columns. The
backtest commands read from this directory.`,
	}
	cmd.AddCommand(newDataListCmd(app))
	cmd.AddCommand(newDataShowCmd(app))
	cmd.AddCommand(newDataImportCmd(app))
	rootCmd.AddCommand(cmd)
}

func newDataListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tickers with local price data",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			entries, err := os.ReadDir(app.Config.Data.PricesDir)
			if err != nil {
				if os.IsNotExist(err) {
					output.Warning("No price data directory at %s", app.Config.Data.PricesDir)
					return nil
				}
				return err
			}

			var tickers []string
			for _, e := range entries {
				name := e.Name()
				if strings.HasSuffix(name, ".csv") {
					tickers = append(tickers, strings.TrimSuffix(name, ".csv"))
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string][]string{"tickers": tickers})
			}
			if len(tickers) == 0 {
				output.Warning("No price files in %s", app.Config.Data.PricesDir)
				return nil
			}
			output.Bold("Local Price Data (%d tickers)", len(tickers))
			for _, t := range tickers {
				output.Printf("  %s\n", t)
			}
			return nil
		},
	}
}

func newDataShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticker>",
		Short: "Show the date range of a ticker's local data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			series, err := app.Fetcher.Daily(ctx, args[0])
			if err != nil {
				output.Error("Failed to load data: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"ticker": series.Ticker,
					"points": series.Len(),
					"start":  series.First().Date.Format("2006-01-02"),
					"end":    series.Last().Date.Format("2006-01-02"),
				})
			}

			output.Bold("%s", series.Ticker)
			output.Printf("  Observations: %d\n", series.Len())
			output.Printf("  From:         %s (close %.2f)\n", series.First().Date.Format("2006-01-02"), series.First().Close)
			output.Printf("  To:           %s (close %.2f)\n", series.Last().Date.Format("2006-01-02"), series.Last().Close)
			return nil
		},
	}
}

func newDataImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <ticker> <file>",
		Short: "Import a CSV file into the price data directory",
		Long: `Validate a CSV file (date and close columns) and copy it into the
price data directory under the ticker's name.`,
		Example: `  backtester data import AAPL ~/downloads/aapl-daily.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			ticker := strings.ToUpper(args[0])
			series, err := marketdata.LoadCSV(args[1], ticker)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if err := os.MkdirAll(app.Config.Data.PricesDir, 0755); err != nil {
				return err
			}
			if err := app.Fetcher.Save(series); err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"ticker": ticker, "points": series.Len()})
			}
			output.Success("Imported %d observations for %s", series.Len(), ticker)
			return nil
		},
	}
}
