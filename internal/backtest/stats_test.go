package backtest

import (
	"math"
	"testing"
)

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name                   string
		initial, final, years  float64
		want                   float64
	}{
		{"doubling in one year", 100, 200, 1, 1.0},
		{"flat", 100, 100, 5, 0},
		{"quarter year compounding", 100000, 104500, 0.25, math.Pow(1.045, 4) - 1},
		{"zero years", 100, 200, 0, 0},
		{"non-positive initial", 0, 200, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CAGR(tt.initial, tt.final, tt.years); !closeTo(got, tt.want, 1e-12) {
				t.Errorf("CAGR = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single dip", []float64{100000, 110000, 104500}, 5500.0 / 110000},
		{"full round trip", []float64{100, 50, 100}, 0.5},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDrawdown(tt.values); !closeTo(got, tt.want, 1e-12) {
				t.Errorf("MaxDrawdown = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.10, -0.05}
	// mean 0.025, sample std 0.075*sqrt(2); annualized by 12 periods.
	std := 0.075 * math.Sqrt2
	want := (0.025*12 - 0.02) / (std * math.Sqrt(12))
	if got := SharpeRatio(returns, 0.02, 12); !closeTo(got, want, 1e-12) {
		t.Errorf("SharpeRatio = %v, want %v", got, want)
	}

	if got := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0.02, 12); got != 0 {
		t.Errorf("zero-deviation Sharpe = %v, want 0", got)
	}
	if got := SharpeRatio(nil, 0.02, 12); got != 0 {
		t.Errorf("empty Sharpe = %v, want 0", got)
	}
}

func TestSortinoRatio(t *testing.T) {
	// No negative returns: undefined, reported as 0.
	if got := SortinoRatio([]float64{0.02, 0.03}, 0.02, 12); got != 0 {
		t.Errorf("all-positive Sortino = %v, want 0", got)
	}
	// A single negative return has zero sample deviation.
	if got := SortinoRatio([]float64{0.05, -0.02}, 0.02, 12); got != 0 {
		t.Errorf("single-negative Sortino = %v, want 0", got)
	}

	returns := []float64{0.05, -0.02, -0.04, 0.03}
	got := SortinoRatio(returns, 0.02, 12)
	downside := sampleStdDev([]float64{-0.02, -0.04})
	want := (mean(returns)*12 - 0.02) / (downside * math.Sqrt(12))
	if !closeTo(got, want, 1e-12) {
		t.Errorf("Sortino = %v, want %v", got, want)
	}
}

func TestBestWorstYear(t *testing.T) {
	labels := []string{
		"2020-11", "2020-12",
		"2021-03", "2021-06", "2021-12",
		"2022-06", "2022-12",
	}
	values := []float64{95, 100, 105, 112, 120, 110, 90}

	// Year-end values 100, 120, 90: +20% then -25%.
	if got := BestYear(labels, values); !closeTo(got, 0.20, 1e-12) {
		t.Errorf("BestYear = %v, want 0.20", got)
	}
	if got := WorstYear(labels, values); !closeTo(got, -0.25, 1e-12) {
		t.Errorf("WorstYear = %v, want -0.25", got)
	}

	// A single calendar year has no year-over-year return.
	oneYear := []string{"2021-01", "2021-06"}
	if got := BestYear(oneYear, []float64{100, 110}); got != 0 {
		t.Errorf("single-year BestYear = %v, want 0", got)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	a := []float64{0.01, 0.02, 0.03, 0.04}
	if got := PearsonCorrelation(a, a); !closeTo(got, 1, 1e-12) {
		t.Errorf("self correlation = %v, want 1", got)
	}

	inverse := []float64{0.04, 0.03, 0.02, 0.01}
	if got := PearsonCorrelation(a, inverse); !closeTo(got, -1, 1e-12) {
		t.Errorf("inverse correlation = %v, want -1", got)
	}

	if got := PearsonCorrelation([]float64{1}, []float64{2}); got != 0 {
		t.Errorf("single-point correlation = %v, want 0", got)
	}
	if got := PearsonCorrelation(a, []float64{0.02, 0.02, 0.02, 0.02}); got != 0 {
		t.Errorf("zero-variance correlation = %v, want 0", got)
	}
	if got := PearsonCorrelation(a, a[:2]); got != 0 {
		t.Errorf("length-mismatch correlation = %v, want 0", got)
	}
}

func TestPnLDrawdown(t *testing.T) {
	// Cumulative P&L can go negative; drawdown is in dollars off the peak.
	pnls := []float64{0, 500, 200, -300, 100}
	if got := pnlDrawdown(pnls); !closeTo(got, 800, 1e-12) {
		t.Errorf("pnlDrawdown = %v, want 800", got)
	}
	if got := pnlDrawdown(nil); got != 0 {
		t.Errorf("empty pnlDrawdown = %v, want 0", got)
	}
}
