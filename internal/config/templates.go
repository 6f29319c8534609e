package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# quant-backtester configuration

[engine]
# Risk-free rate used for Black-Scholes pricing (annualized).
risk_free_rate = 0.045
# Risk-free rate used for Sharpe/Sortino ratios (annualized).
sharpe_risk_free_rate = 0.02
# Implied volatility solver settings.
iv_initial_guess = 0.3
iv_tolerance = 1e-6
iv_max_iterations = 100
# Historical volatility rolling window (trading days).
hist_vol_window = 20
trading_days_per_year = 252
# Volatility used when no historical value is available.
fallback_volatility = 0.30
contract_multiplier = 100
benchmark_ticker = "SPY"

[data]
# Directory containing per-ticker daily close CSV files (TICKER.csv).
# prices_dir = "/path/to/prices"
# db_path = "/path/to/backtester.db"

[log]
level = "info"
console = true
file = true

[ui]
color_enabled = true
date_format = "2006-01-02"
`

// writeTemplate writes a commented config.toml so a first run leaves the
// user something to edit.
func writeTemplate(configDir string) error {
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
