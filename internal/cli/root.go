// Package cli provides the command-line interface for the backtesting application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quant-backtester/internal/backtest"
	"quant-backtester/internal/config"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/marketdata"
	"quant-backtester/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Fetcher *marketdata.CSVFetcher
	Engine  *backtest.Engine
	Store   store.RunStore
}

// output builds an Output honoring the app's color setting.
func (app *App) output(cmd *cobra.Command) *Output {
	return NewOutput(cmd, app.Config.UI.ColorEnabled)
}

// userID returns the run owner from the --user flag.
func (app *App) userID(cmd *cobra.Command) string {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = "default"
	}
	return user
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Fetcher = marketdata.NewCSVFetcher(cfg.Data.PricesDir)
	app.Engine = backtest.NewEngine(app.Fetcher, cfg.Engine)

	// Run history store
	runStore, err := store.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize run store, history will be unavailable")
	} else {
		app.Store = runStore
		logger.Debug().Str("path", cfg.Data.DBPath).Msg("SQLite run store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "backtester",
		Short: "Quant Backtester - portfolio and options strategy backtesting CLI",
		Long: `Quant Backtester runs historical backtests from local daily price data.

Two engines are available: a monthly-rebalanced portfolio backtest over
weighted tickers, and an options strategy simulator that prices a catalog
of spreads with Black-Scholes and marks them to market daily.

Use 'backtester help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("user", "default", "run owner for saved history")

	addCoreCommands(rootCmd, app)
	addBacktestCommands(rootCmd, app)
	addPricingCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Quant Backtester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Engine")
	output.Printf("  Risk-Free Rate:        %.4f\n", cfg.Engine.RiskFreeRate)
	output.Printf("  Sharpe Risk-Free Rate: %.4f\n", cfg.Engine.SharpeRiskFreeRate)
	output.Printf("  Hist Vol Window:       %d\n", cfg.Engine.HistVolWindow)
	output.Printf("  Trading Days/Year:     %d\n", cfg.Engine.TradingDaysPerYear)
	output.Printf("  Fallback Volatility:   %.2f\n", cfg.Engine.FallbackVolatility)
	output.Printf("  Contract Multiplier:   %d\n", cfg.Engine.ContractMultiplier)
	output.Printf("  Benchmark Ticker:      %s\n", cfg.Engine.BenchmarkTicker)
	output.Println()

	output.Bold("Data")
	output.Printf("  Prices Dir: %s\n", cfg.Data.PricesDir)
	output.Printf("  DB Path:    %s\n", cfg.Data.DBPath)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:   %s\n", cfg.Log.Level)
	output.Printf("  Console: %v\n", cfg.Log.Console)
	output.Printf("  File:    %v\n", cfg.Log.File)

	return nil
}
