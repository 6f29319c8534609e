// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
	UI     UIConfig     `mapstructure:"ui"`
}

// EngineConfig holds the numerical defaults handed to the core engines.
// The engines receive these as explicit parameters; nothing in the core
// reads process-wide state.
type EngineConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`        // options pricing
	SharpeRiskFreeRate float64 `mapstructure:"sharpe_risk_free_rate"` // portfolio ratios
	IVInitialGuess     float64 `mapstructure:"iv_initial_guess"`
	IVTolerance        float64 `mapstructure:"iv_tolerance"`
	IVMaxIterations    int     `mapstructure:"iv_max_iterations"`
	HistVolWindow      int     `mapstructure:"hist_vol_window"`
	TradingDaysPerYear int     `mapstructure:"trading_days_per_year"`
	FallbackVolatility float64 `mapstructure:"fallback_volatility"`
	ContractMultiplier int     `mapstructure:"contract_multiplier"`
	BenchmarkTicker    string  `mapstructure:"benchmark_ticker"`
}

// DataConfig holds market-data and persistence locations.
type DataConfig struct {
	PricesDir string `mapstructure:"prices_dir"` // per-ticker CSV files
	DBPath    string `mapstructure:"db_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quant-backtester"
	}
	return filepath.Join(home, ".config", "quant-backtester")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Engine: EngineConfig{
			RiskFreeRate:       0.045,
			SharpeRiskFreeRate: 0.02,
			IVInitialGuess:     0.3,
			IVTolerance:        1e-6,
			IVMaxIterations:    100,
			HistVolWindow:      20,
			TradingDaysPerYear: 252,
			FallbackVolatility: 0.30,
			ContractMultiplier: 100,
			BenchmarkTicker:    "SPY",
		},
		Data: DataConfig{
			PricesDir: filepath.Join(dir, "prices"),
			DBPath:    filepath.Join(dir, "backtester.db"),
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "2006-01-02",
		},
	}
}

// Load loads the configuration from the config directory, creating a
// template on first run, then applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigDir())
}

// LoadFrom loads the configuration from the given directory.
func LoadFrom(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := writeTemplate(configDir); err != nil {
				return nil, fmt.Errorf("writing config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("engine.risk_free_rate", cfg.Engine.RiskFreeRate)
	v.SetDefault("engine.sharpe_risk_free_rate", cfg.Engine.SharpeRiskFreeRate)
	v.SetDefault("engine.iv_initial_guess", cfg.Engine.IVInitialGuess)
	v.SetDefault("engine.iv_tolerance", cfg.Engine.IVTolerance)
	v.SetDefault("engine.iv_max_iterations", cfg.Engine.IVMaxIterations)
	v.SetDefault("engine.hist_vol_window", cfg.Engine.HistVolWindow)
	v.SetDefault("engine.trading_days_per_year", cfg.Engine.TradingDaysPerYear)
	v.SetDefault("engine.fallback_volatility", cfg.Engine.FallbackVolatility)
	v.SetDefault("engine.contract_multiplier", cfg.Engine.ContractMultiplier)
	v.SetDefault("engine.benchmark_ticker", cfg.Engine.BenchmarkTicker)
	v.SetDefault("data.prices_dir", cfg.Data.PricesDir)
	v.SetDefault("data.db_path", cfg.Data.DBPath)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.console", cfg.Log.Console)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.date_format", cfg.UI.DateFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKTESTER_PRICES_DIR"); v != "" {
		cfg.Data.PricesDir = v
	}
	if v := os.Getenv("BACKTESTER_DB_PATH"); v != "" {
		cfg.Data.DBPath = v
	}
	if v := os.Getenv("BACKTESTER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BACKTESTER_RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.RiskFreeRate = rate
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.IVMaxIterations <= 0 {
		return fmt.Errorf("iv_max_iterations must be positive")
	}
	if c.Engine.IVTolerance <= 0 {
		return fmt.Errorf("iv_tolerance must be positive")
	}
	if c.Engine.HistVolWindow < 2 {
		return fmt.Errorf("hist_vol_window must be at least 2")
	}
	if c.Engine.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading_days_per_year must be positive")
	}
	if c.Engine.FallbackVolatility <= 0 {
		return fmt.Errorf("fallback_volatility must be positive")
	}
	if c.Engine.ContractMultiplier <= 0 {
		return fmt.Errorf("contract_multiplier must be positive")
	}
	return nil
}
