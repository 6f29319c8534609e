// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quant-backtester/internal/models"
	"quant-backtester/internal/strategy"
)

// addStrategyCommands adds the strategy catalog commands.
func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List available options strategies",
		Long:  "List the options strategy catalog with leg composition and risk profiles.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			kinds := strategy.Kinds()

			if output.IsJSON() {
				defs := make(map[string]models.StrategyDefinition, len(kinds))
				for _, kind := range kinds {
					s, err := strategy.Get(kind)
					if err != nil {
						return err
					}
					defs[string(kind)] = s.Definition()
				}
				return output.JSON(defs)
			}

			color.Cyan("Options Strategy Catalog")
			output.Println()
			table := NewTable(output, "Strategy", "Name", "Legs", "Max Profit", "Max Loss")
			for _, kind := range kinds {
				s, err := strategy.Get(kind)
				if err != nil {
					return err
				}
				def := s.Definition()
				table.AddRow(
					string(kind),
					def.Name,
					summarizeLegs(def),
					def.MaxProfit,
					def.MaxLoss,
				)
			}
			table.Render()
			output.Println()
			output.Dim("Use 'backtester strategies show <strategy>' for details.")
			return nil
		},
	}

	cmd.AddCommand(newStrategyShowCmd(app))
	rootCmd.AddCommand(cmd)
}

func newStrategyShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <strategy>",
		Short: "Show one strategy's definition",
		Example: `  backtester strategies show iron_condor
  backtester strategies show covered_call`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			s, err := strategy.Get(strategy.Kind(args[0]))
			if err != nil {
				output.Error("Unknown strategy %q. Run 'backtester strategies' to list.", args[0])
				return err
			}
			def := s.Definition()

			if output.IsJSON() {
				return output.JSON(def)
			}

			color.Cyan("%s (%s)", def.Name, s.Kind())
			output.Println()
			output.Printf("  %s\n", def.Description)
			output.Println()

			output.Bold("Legs")
			table := NewTable(output, "#", "Position", "Type", "Strike", "Qty")
			for i, leg := range def.Legs {
				table.AddRow(
					fmt.Sprintf("leg_%d", i),
					string(leg.Position),
					string(leg.Type),
					leg.StrikeSelection,
					fmt.Sprintf("%d", leg.Quantity),
				)
			}
			table.Render()
			if def.StockLeg != nil {
				output.Printf("  plus %s %d shares\n", def.StockLeg.Position, def.StockLeg.Quantity)
			}
			output.Println()

			output.Printf("  Max Profit: %s\n", def.MaxProfit)
			output.Printf("  Max Loss:   %s\n", def.MaxLoss)
			output.Printf("  Breakeven:  %s\n", def.Breakeven)
			return nil
		},
	}
}

// summarizeLegs renders a compact leg listing like "long call + short call".
func summarizeLegs(def models.StrategyDefinition) string {
	parts := make([]string, 0, len(def.Legs)+1)
	for _, leg := range def.Legs {
		parts = append(parts, fmt.Sprintf("%s %s", leg.Position, leg.Type))
	}
	if def.StockLeg != nil {
		parts = append(parts, fmt.Sprintf("%s stock", def.StockLeg.Position))
	}
	return strings.Join(parts, " + ")
}
