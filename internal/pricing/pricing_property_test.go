package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"quant-backtester/internal/models"
)

// Property: put-call parity holds across the full input space, on both
// the scalar and vectorized paths.

func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("C - P = S - K*exp(-rT)", prop.ForAll(
		func(s, k, tt, r, sigma float64) bool {
			call := BlackScholes(s, k, tt, r, sigma, models.Call).Value
			put := BlackScholes(s, k, tt, r, sigma, models.Put).Value
			want := s - k*math.Exp(-r*tt)
			return math.Abs(call-put-want) < 1e-6
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.01, 3),
		gen.Float64Range(0, 0.15),
		gen.Float64Range(0.05, 1.5),
	))

	properties.Property("vectorized parity over mixed series", prop.ForAll(
		func(k, r float64) bool {
			s := []float64{50, 80, 100, 120, 200}
			ts := []float64{0, 0.1, 0.5, 1, 2}
			sigma := []float64{0.2, 0, 0.3, 0.4, 0.6}
			calls := BlackScholesVector(s, k, ts, r, sigma, models.Call)
			puts := BlackScholesVector(s, k, ts, r, sigma, models.Put)
			for i := range s {
				// Parity only holds on the live branch; degenerate rows
				// collapse to (discounted) intrinsic with its own floor.
				if ts[i] <= 0 || sigma[i] <= 0 {
					continue
				}
				want := s[i] - k*math.Exp(-r*ts[i])
				if math.Abs(calls[i]-puts[i]-want) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(0, 0.1),
	))

	properties.TestingRun(t)
}

// Property: Greeks stay inside their mathematical bounds for all live
// inputs.

func TestProperty_GreeksSanity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("call delta in [0,1], put delta in [-1,0], gamma and vega non-negative", prop.ForAll(
		func(s, k, tt, r, sigma float64) bool {
			call := CalcGreeks(s, k, tt, r, sigma, models.Call)
			put := CalcGreeks(s, k, tt, r, sigma, models.Put)
			if call.Delta < 0 || call.Delta > 1 {
				return false
			}
			if put.Delta < -1 || put.Delta > 0 {
				return false
			}
			return call.Gamma >= 0 && call.Vega >= 0 && put.Gamma >= 0 && put.Vega >= 0
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(0.001, 3),
		gen.Float64Range(0, 0.15),
		gen.Float64Range(0.01, 1.5),
	))

	properties.TestingRun(t)
}

// Property: price is monotonically non-decreasing in volatility, which is
// what makes the implied-volatility root unique.

func TestProperty_PriceMonotoneInVol(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("higher sigma never lowers the price", prop.ForAll(
		func(s, k, tt, sigma, bump float64) bool {
			low := BlackScholes(s, k, tt, 0.03, sigma, models.Call).Value
			high := BlackScholes(s, k, tt, 0.03, sigma+bump, models.Call).Value
			return high >= low-1e-9
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(50, 200),
		gen.Float64Range(0.05, 2),
		gen.Float64Range(0.05, 1),
		gen.Float64Range(0.01, 1),
	))

	properties.TestingRun(t)
}

// Property: Newton-Raphson recovers the generating volatility from a
// kernel-produced price.

func TestProperty_ImpliedVolRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("solve(price(sigma)) ~= sigma", prop.ForAll(
		func(s, moneyness, tt, sigma float64) bool {
			k := s * moneyness
			price := BlackScholes(s, k, tt, 0.03, sigma, models.Call).Value
			got, err := ImpliedVolNewton(price, s, k, tt, 0.03, models.Call, DefaultIVConfig())
			if err != nil {
				// Deep OTM prices can sit in the flat-vega region; the
				// strict solver reporting no solution is valid there.
				return price < 0.01
			}
			return math.Abs(got-sigma) < 1e-3
		},
		gen.Float64Range(50, 200),
		gen.Float64Range(0.8, 1.2),
		gen.Float64Range(0.1, 2),
		gen.Float64Range(0.1, 0.8),
	))

	properties.TestingRun(t)
}
