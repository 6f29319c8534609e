// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quant-backtester/internal/config"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/models"
	"quant-backtester/internal/pricing"
)

// addPricingCommands adds standalone option pricing commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newIVCmd(app))
}

func parseOptionType(s string) (models.OptionType, error) {
	switch strings.ToLower(s) {
	case "call", "c":
		return models.Call, nil
	case "put", "p":
		return models.Put, nil
	default:
		return "", fmt.Errorf("option type must be call or put, got %q", s)
	}
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price an option with Black-Scholes",
		Example: `  backtester price --spot 100 --strike 105 --dte 30 --vol 0.25
  backtester price --type put --spot 450 --strike 440 --dte 45 --vol 0.18`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			typFlag, _ := cmd.Flags().GetString("type")
			typ, err := parseOptionType(typFlag)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			dte, _ := cmd.Flags().GetInt("dte")
			vol, _ := cmd.Flags().GetFloat64("vol")
			rate := riskFreeRate(cmd, app.Config.Engine)

			t := float64(dte) / 365.0
			price := pricing.BlackScholes(spot, strike, t, rate, vol, typ)
			greeks := pricing.CalcGreeks(spot, strike, t, rate, vol, typ)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"price":      price.Value,
					"intrinsic":  price.Intrinsic,
					"time_value": price.TimeValue,
					"greeks":     greeks,
				})
			}

			output.Bold("%s %.2f, spot %.2f, %d DTE, vol %.2f", strings.ToUpper(string(typ)), strike, spot, dte, vol)
			output.Printf("  Price:      %.4f\n", price.Value)
			output.Printf("  Intrinsic:  %.4f\n", price.Intrinsic)
			output.Printf("  Time Value: %.4f\n", price.TimeValue)
			output.Println()
			output.Printf("  Delta: %.4f\n", greeks.Delta)
			output.Printf("  Gamma: %.4f\n", greeks.Gamma)
			output.Printf("  Theta: %.4f\n", greeks.Theta)
			output.Printf("  Vega:  %.4f\n", greeks.Vega)
			output.Printf("  Rho:   %.4f\n", greeks.Rho)
			return nil
		},
	}

	addContractFlags(cmd)
	cmd.Flags().Float64("vol", 0.3, "annualized volatility")

	return cmd
}

func newIVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve implied volatility from a market price",
		Long: `Solve the volatility that reproduces an observed option price.

The Newton solver is fast but fails strictly on degenerate inputs; the
bisection solver brackets instead and can return a best-effort answer.`,
		Example: `  backtester iv --price 4.20 --spot 100 --strike 105 --dte 30
  backtester iv --price 12.50 --type put --spot 450 --strike 460 --dte 60 --method bisection`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			typFlag, _ := cmd.Flags().GetString("type")
			typ, err := parseOptionType(typFlag)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			marketPrice, _ := cmd.Flags().GetFloat64("price")
			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			dte, _ := cmd.Flags().GetInt("dte")
			method, _ := cmd.Flags().GetString("method")
			rate := riskFreeRate(cmd, app.Config.Engine)

			t := float64(dte) / 365.0
			cfg := pricing.IVConfig{
				InitialGuess:  app.Config.Engine.IVInitialGuess,
				Tolerance:     app.Config.Engine.IVTolerance,
				MaxIterations: app.Config.Engine.IVMaxIterations,
			}

			var iv float64
			switch method {
			case "newton":
				iv, err = pricing.ImpliedVolNewton(marketPrice, spot, strike, t, rate, typ, cfg)
			case "bisection":
				iv, err = pricing.ImpliedVolBisection(marketPrice, spot, strike, t, rate, typ, cfg)
			default:
				err = fmt.Errorf("method must be newton or bisection, got %q", method)
			}
			if err != nil {
				logging.LogSolverFailure(app.Logger, method, marketPrice, err)
				output.Error("No implied volatility: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"implied_volatility": iv,
					"method":             method,
				})
			}
			output.Printf("  Implied Volatility: %s\n", output.BoldText(fmt.Sprintf("%.4f (%.2f%%)", iv, iv*100)))
			output.Dim("  Solved with %s from price %.4f", method, marketPrice)
			return nil
		},
	}

	addContractFlags(cmd)
	cmd.Flags().Float64("price", 0, "observed option market price")
	cmd.Flags().String("method", "newton", "solver: newton or bisection")
	cmd.MarkFlagRequired("price")

	return cmd
}

// addContractFlags declares the flags shared by the pricing commands.
func addContractFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "call", "option type: call or put")
	cmd.Flags().Float64("spot", 100, "spot price of the underlying")
	cmd.Flags().Float64("strike", 100, "strike price")
	cmd.Flags().Int("dte", 30, "days to expiration")
	cmd.Flags().Float64("rate", 0, "risk-free rate (default: configured engine rate)")
}

// riskFreeRate resolves the --rate flag against the configured default.
func riskFreeRate(cmd *cobra.Command, engine config.EngineConfig) float64 {
	if cmd.Flags().Changed("rate") {
		rate, _ := cmd.Flags().GetFloat64("rate")
		return rate
	}
	return engine.RiskFreeRate
}
