// Package pricing implements the Black-Scholes pricing kernel, option
// Greeks, and the implied/historical volatility solvers. All functions are
// pure: degenerate market states (expired, zero volatility) are handled by
// dedicated formula branches and never error.
package pricing

import (
	"math"

	"quant-backtester/internal/models"
)

// Price is the result of pricing a single European option.
type Price struct {
	Value     float64 `json:"price"`
	Intrinsic float64 `json:"intrinsic_value"`
	TimeValue float64 `json:"time_value"`
}

func intrinsic(s, k float64, typ models.OptionType) float64 {
	if typ == models.Call {
		return math.Max(s-k, 0)
	}
	return math.Max(k-s, 0)
}

// discountedIntrinsic is the option value under zero volatility: the
// intrinsic value against the strike discounted at the risk-free rate.
func discountedIntrinsic(s, k, t, r float64, typ models.OptionType) float64 {
	if typ == models.Call {
		return math.Max(s-k*math.Exp(-r*t), 0)
	}
	return math.Max(k*math.Exp(-r*t)-s, 0)
}

// BlackScholes computes the fair value of a European option.
//
//	C = S*N(d1) - K*e^(-rT)*N(d2)
//	P = K*e^(-rT)*N(-d2) - S*N(-d1)
//	d1 = [ln(S/K) + (r + sigma^2/2)*T] / (sigma*sqrt(T)),  d2 = d1 - sigma*sqrt(T)
//
// T <= 0 returns intrinsic value; sigma <= 0 returns the discounted
// intrinsic value. The price is floored at zero.
func BlackScholes(s, k, t, r, sigma float64, typ models.OptionType) Price {
	if t <= 0 {
		v := intrinsic(s, k, typ)
		return Price{Value: v, Intrinsic: v}
	}
	if sigma <= 0 {
		v := discountedIntrinsic(s, k, t, r, typ)
		return Price{Value: v, Intrinsic: v}
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var value, intr float64
	if typ == models.Call {
		value = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
		intr = math.Max(s-k, 0)
	} else {
		value = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
		intr = math.Max(k-s, 0)
	}
	value = math.Max(value, 0)

	return Price{
		Value:     value,
		Intrinsic: intr,
		TimeValue: math.Max(value-intr, 0),
	}
}

// BlackScholesVector prices one strike across aligned spot, time-to-expiry,
// and volatility series (K and r scalar). All three branches are evaluated
// for every element with degenerate inputs substituted by safe values, and
// the branch result is selected per element. A series that crosses T=0 or
// sigma=0 partway through therefore never feeds log or division with a
// degenerate argument.
func BlackScholesVector(s []float64, k float64, t []float64, r float64, sigma []float64, typ models.OptionType) []float64 {
	n := len(s)
	prices := make([]float64, n)

	for i := 0; i < n; i++ {
		expired := t[i] <= 0
		zeroVol := sigma[i] <= 0

		tSafe := t[i]
		if expired || zeroVol {
			tSafe = 1
		}
		sigSafe := sigma[i]
		if zeroVol {
			sigSafe = 1
		}

		sqrtT := math.Sqrt(tSafe)
		d1 := (math.Log(s[i]/k) + (r+0.5*sigSafe*sigSafe)*tSafe) / (sigSafe * sqrtT)
		d2 := d1 - sigSafe*sqrtT

		var normal float64
		if typ == models.Call {
			normal = s[i]*normCDF(d1) - k*math.Exp(-r*tSafe)*normCDF(d2)
		} else {
			normal = k*math.Exp(-r*tSafe)*normCDF(-d2) - s[i]*normCDF(-d1)
		}

		switch {
		case expired:
			prices[i] = intrinsic(s[i], k, typ)
		case zeroVol:
			prices[i] = discountedIntrinsic(s[i], k, t[i], r, typ)
		default:
			prices[i] = normal
		}
		prices[i] = math.Max(prices[i], 0)
	}

	return prices
}
