package pricing

import (
	"math"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/models"
)

// IVConfig holds implied-volatility solver settings. Solvers receive
// configuration explicitly; defaults live here, not in process-wide state.
type IVConfig struct {
	InitialGuess  float64
	Tolerance     float64
	MaxIterations int
}

// DefaultIVConfig returns the standard solver settings.
func DefaultIVConfig() IVConfig {
	return IVConfig{
		InitialGuess:  0.3,
		Tolerance:     1e-6,
		MaxIterations: 100,
	}
}

// Newton-Raphson iteration bounds. Sigma is clamped to (0, maxSigma] to
// prevent divergence; a vega below minVega means the price surface is flat
// and the iteration cannot proceed.
const (
	minVega  = 1e-10
	maxSigma = 10.0
)

// ImpliedVolNewton recovers the volatility that reprices an observed
// market price via Newton-Raphson:
//
//	sigma <- sigma - (BS(sigma) - price) / vega(sigma)
//
// It returns errors.ErrNoSolution if the option is expired, the market
// price is below the no-arbitrage intrinsic floor, vega underflows, or the
// iteration cap is reached without convergence.
func ImpliedVolNewton(marketPrice, s, k, t, r float64, typ models.OptionType, cfg IVConfig) (float64, error) {
	if t <= 0 {
		return 0, errors.ErrNoSolution
	}
	if marketPrice < discountedIntrinsic(s, k, t, r, typ) {
		return 0, errors.ErrNoSolution
	}

	sigma := cfg.InitialGuess
	sqrtT := math.Sqrt(t)
	disc := math.Exp(-r * t)

	for i := 0; i < cfg.MaxIterations; i++ {
		d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
		d2 := d1 - sigma*sqrtT

		var price float64
		if typ == models.Call {
			price = s*normCDF(d1) - k*disc*normCDF(d2)
		} else {
			price = k*disc*normCDF(-d2) - s*normCDF(-d1)
		}

		// Per-year vega, not the per-1% reporting convention.
		vega := s * normPDF(d1) * sqrtT
		if vega < minVega {
			return 0, errors.ErrNoSolution
		}

		diff := price - marketPrice
		if math.Abs(diff) < cfg.Tolerance {
			return sigma, nil
		}

		sigma -= diff / vega
		if sigma <= 0 {
			sigma = 0.01
		} else if sigma > maxSigma {
			sigma = maxSigma
		}
	}

	return 0, errors.ErrNoSolution
}

// Bisection bracket for the fallback solver.
const (
	bisectLow  = 0.001
	bisectHigh = 5.0
)

// ImpliedVolBisection recovers implied volatility by bisecting the
// bracket [0.001, 5.0]. It is slower but more robust than Newton-Raphson.
// A market price outside the range spanned by the bracket endpoints
// returns errors.ErrNoSolution. Unlike Newton, hitting the iteration cap
// is not a failure: the midpoint of the final bracket is returned as a
// best-effort estimate.
func ImpliedVolBisection(marketPrice, s, k, t, r float64, typ models.OptionType, cfg IVConfig) (float64, error) {
	if t <= 0 {
		return 0, errors.ErrNoSolution
	}

	lo, hi := bisectLow, bisectHigh
	priceLo := BlackScholes(s, k, t, r, lo, typ).Value
	priceHi := BlackScholes(s, k, t, r, hi, typ).Value
	if marketPrice < priceLo || marketPrice > priceHi {
		return 0, errors.ErrNoSolution
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		mid := (lo + hi) / 2
		price := BlackScholes(s, k, t, r, mid, typ).Value

		if math.Abs(price-marketPrice) < cfg.Tolerance {
			return mid, nil
		}
		if price > marketPrice {
			hi = mid
		} else {
			lo = mid
		}
	}

	return (lo + hi) / 2, nil
}
