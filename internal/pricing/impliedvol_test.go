package pricing

import (
	"math"
	"testing"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/models"
)

func TestImpliedVolNewtonRoundTrip(t *testing.T) {
	const s, k, tt, r, sigma = 100.0, 100.0, 0.5, 0.03, 0.25
	price := BlackScholes(s, k, tt, r, sigma, models.Call).Value

	got, err := ImpliedVolNewton(price, s, k, tt, r, models.Call, DefaultIVConfig())
	if err != nil {
		t.Fatalf("ImpliedVolNewton: %v", err)
	}
	if math.Abs(got-sigma) > 1e-4 {
		t.Errorf("solved sigma = %v, want %v within 1e-4", got, sigma)
	}
}

func TestImpliedVolNewtonRoundTripGrid(t *testing.T) {
	cfg := DefaultIVConfig()
	for _, typ := range []models.OptionType{models.Call, models.Put} {
		for _, sigma := range []float64{0.1, 0.25, 0.5, 0.8} {
			for _, k := range []float64{90.0, 100.0, 110.0} {
				price := BlackScholes(100, k, 0.5, 0.03, sigma, typ).Value
				got, err := ImpliedVolNewton(price, 100, k, 0.5, 0.03, typ, cfg)
				if err != nil {
					t.Errorf("%s K=%v sigma=%v: %v", typ, k, sigma, err)
					continue
				}
				if math.Abs(got-sigma) > 1e-4 {
					t.Errorf("%s K=%v: solved %v, want %v", typ, k, got, sigma)
				}
			}
		}
	}
}

func TestImpliedVolNewtonFailures(t *testing.T) {
	cfg := DefaultIVConfig()

	// Expired option.
	if _, err := ImpliedVolNewton(5, 100, 100, 0, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("expired: err = %v, want ErrNoSolution", err)
	}

	// Price below the no-arbitrage floor.
	if _, err := ImpliedVolNewton(5, 110, 100, 0.5, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("below intrinsic: err = %v, want ErrNoSolution", err)
	}

	// A deep OTM short-dated option has vanishing vega at any plausible
	// sigma reachable from the initial guess.
	if _, err := ImpliedVolNewton(0.01, 10, 100, 0.01, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("flat vega: err = %v, want ErrNoSolution", err)
	}
}

func TestImpliedVolBisectionRoundTrip(t *testing.T) {
	const s, k, tt, r, sigma = 100.0, 105.0, 0.5, 0.03, 0.35
	price := BlackScholes(s, k, tt, r, sigma, models.Put).Value

	got, err := ImpliedVolBisection(price, s, k, tt, r, models.Put, DefaultIVConfig())
	if err != nil {
		t.Fatalf("ImpliedVolBisection: %v", err)
	}
	if math.Abs(got-sigma) > 1e-3 {
		t.Errorf("solved sigma = %v, want %v", got, sigma)
	}
}

func TestImpliedVolBisectionRejectsOutOfRange(t *testing.T) {
	cfg := DefaultIVConfig()

	// Price above what sigma=5.0 can produce.
	if _, err := ImpliedVolBisection(1000, 100, 100, 0.5, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("price too high: err = %v, want ErrNoSolution", err)
	}
	// Price below what sigma=0.001 produces for an ITM call.
	if _, err := ImpliedVolBisection(1, 110, 100, 0.5, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("price too low: err = %v, want ErrNoSolution", err)
	}
	if _, err := ImpliedVolBisection(5, 100, 100, 0, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("expired: err = %v, want ErrNoSolution", err)
	}
}

func TestImpliedVolBisectionBestEffortOnCap(t *testing.T) {
	// With a single iteration allowed the solver cannot converge, but it
	// still reports the bracket midpoint instead of failing.
	cfg := DefaultIVConfig()
	cfg.MaxIterations = 1

	price := BlackScholes(100, 100, 0.5, 0.03, 0.25, models.Call).Value
	got, err := ImpliedVolBisection(price, 100, 100, 0.5, 0.03, models.Call, cfg)
	if err != nil {
		t.Fatalf("best-effort path returned error: %v", err)
	}
	if got <= bisectLow || got >= bisectHigh {
		t.Errorf("best-effort sigma = %v, want inside the bracket", got)
	}
}

func TestImpliedVolNewtonStrictOnCap(t *testing.T) {
	// The same cap makes Newton fail outright; the two solvers keep their
	// different policies.
	cfg := DefaultIVConfig()
	cfg.MaxIterations = 1
	cfg.InitialGuess = 3.0

	price := BlackScholes(100, 100, 0.5, 0.03, 0.25, models.Call).Value
	if _, err := ImpliedVolNewton(price, 100, 100, 0.5, 0.03, models.Call, cfg); !errors.Is(err, errors.ErrNoSolution) {
		t.Errorf("capped Newton err = %v, want ErrNoSolution", err)
	}
}
