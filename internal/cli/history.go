// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quant-backtester/internal/backtest"
	"quant-backtester/internal/models"
)

// addHistoryCommands adds saved run history commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved backtest runs",
		Long: `Browse backtest runs saved with --save.

Runs are scoped to the --user flag; one user cannot see another's runs.`,
	}
	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryDeleteCmd(app))
	rootCmd.AddCommand(cmd)
}

func requireStore(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("run store unavailable")
	}
	return nil
}

func newHistoryListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := app.Store.ListRuns(ctx, app.userID(cmd), limit)
			if err != nil {
				output.Error("Failed to list runs: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Warning("No saved runs. Use --save on a backtest command.")
				return nil
			}

			output.Bold("Saved Runs (%d)", len(runs))
			table := NewTable(output, "ID", "Kind", "Created")
			for _, r := range runs {
				table.AddRow(r.ID, string(r.Kind), r.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run's results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			run, err := app.Store.GetRun(ctx, app.userID(cmd), args[0])
			if err != nil {
				output.Error("Failed to load run: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(run)
			}
			return displayRun(output, run)
		},
	}
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.DeleteRun(ctx, app.userID(cmd), args[0]); err != nil {
				output.Error("Failed to delete run: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("Deleted run %s", args[0])
			return nil
		},
	}
}

// displayRun re-renders a stored result through the same views the live
// commands use.
func displayRun(output *Output, run *models.BacktestRun) error {
	output.Dim("Run %s (%s, saved %s)", run.ID, run.Kind, run.CreatedAt.Local().Format("2006-01-02 15:04"))
	output.Println()

	switch run.Kind {
	case models.RunPortfolio:
		var req backtest.PortfolioRequest
		var result backtest.PortfolioResult
		if err := json.Unmarshal(run.Request, &req); err != nil {
			return fmt.Errorf("decoding stored request: %w", err)
		}
		if err := json.Unmarshal(run.Result, &result); err != nil {
			return fmt.Errorf("decoding stored result: %w", err)
		}
		return displayPortfolioResult(output, req, &result)
	case models.RunOptions:
		var result backtest.OptionsResult
		if err := json.Unmarshal(run.Result, &result); err != nil {
			return fmt.Errorf("decoding stored result: %w", err)
		}
		return displayOptionsResult(output, &result, false)
	default:
		return fmt.Errorf("unknown run kind %q", run.Kind)
	}
}
