package pricing

import (
	"math"

	"quant-backtester/internal/models"
)

// CalcGreeks computes all five Greeks for a European option. Theta is
// reported per calendar day, vega per one percentage point of volatility,
// rho per one percentage point of rate.
//
// At expiry (T <= 0) all Greeks except delta are zero; delta is binary on
// moneyness with the at-the-money case at half magnitude. Under zero
// volatility delta is binary against the discounted strike.
func CalcGreeks(s, k, t, r, sigma float64, typ models.OptionType) models.Greeks {
	if t <= 0 {
		return models.Greeks{Delta: expiredDelta(s, k, typ)}
	}
	if sigma <= 0 {
		return models.Greeks{Delta: zeroVolDelta(s, k, t, r, typ)}
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := normPDF(d1)
	disc := math.Exp(-r * t)

	gamma := nd1 / (s * sigma * sqrtT)
	vega := s * nd1 * sqrtT / 100

	var delta, theta, rho float64
	if typ == models.Call {
		delta = normCDF(d1)
		theta = (-(s*nd1*sigma)/(2*sqrtT) - r*k*disc*normCDF(d2)) / 365
		rho = k * t * disc * normCDF(d2) / 100
	} else {
		delta = normCDF(d1) - 1
		theta = (-(s*nd1*sigma)/(2*sqrtT) + r*k*disc*normCDF(-d2)) / 365
		rho = -k * t * disc * normCDF(-d2) / 100
	}

	return models.Greeks{
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega,
		Rho:   rho,
	}
}

func expiredDelta(s, k float64, typ models.OptionType) float64 {
	if typ == models.Call {
		switch {
		case s > k:
			return 1
		case s == k:
			return 0.5
		default:
			return 0
		}
	}
	switch {
	case s < k:
		return -1
	case s == k:
		return -0.5
	default:
		return 0
	}
}

func zeroVolDelta(s, k, t, r float64, typ models.OptionType) float64 {
	discK := k * math.Exp(-r*t)
	if typ == models.Call {
		if s > discK {
			return 1
		}
		return 0
	}
	if s < discK {
		return -1
	}
	return 0
}

// CalcGreeksVector computes Greeks for one strike across aligned spot,
// time-to-expiry, and volatility series, selecting the expired, zero-vol,
// or normal branch per element.
func CalcGreeksVector(s []float64, k float64, t []float64, r float64, sigma []float64, typ models.OptionType) []models.Greeks {
	n := len(s)
	out := make([]models.Greeks, n)

	for i := 0; i < n; i++ {
		switch {
		case t[i] <= 0:
			out[i] = models.Greeks{Delta: expiredDelta(s[i], k, typ)}
		case sigma[i] <= 0:
			out[i] = models.Greeks{Delta: zeroVolDelta(s[i], k, t[i], r, typ)}
		default:
			out[i] = CalcGreeks(s[i], k, t[i], r, sigma[i], typ)
		}
	}

	return out
}
