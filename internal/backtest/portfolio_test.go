package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"quant-backtester/internal/config"
	"quant-backtester/internal/errors"
	"quant-backtester/internal/marketdata"
	"quant-backtester/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthlySeries builds a daily series with one observation at each month
// end, which resamples to exactly those closes.
func monthlySeries(ticker string, firstYear int, firstMonth time.Month, closes ...float64) models.PriceSeries {
	s := models.PriceSeries{Ticker: ticker}
	y, m := firstYear, firstMonth
	for _, c := range closes {
		s.Points = append(s.Points, models.PricePoint{Date: day(y, m, 28), Close: c})
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return s
}

func testEngine(series ...models.PriceSeries) *Engine {
	cfg := config.Default().Engine
	return NewEngine(marketdata.NewMemoryFetcher(series...), cfg)
}

func equalWeightRequest() PortfolioRequest {
	return PortfolioRequest{
		Tickers:            []string{"AAA", "BBB"},
		Weights:            []float64{0.5, 0.5},
		StartDate:          "2023-01-01",
		EndDate:            "2023-12-31",
		InitialCapital:     100000,
		RebalanceFrequency: "monthly",
	}
}

func TestRunPortfolioFixedCurve(t *testing.T) {
	// Both assets return 0%, +10%, -5% month over month.
	e := testEngine(
		monthlySeries("AAA", 2023, time.January, 100, 110, 104.5),
		monthlySeries("BBB", 2023, time.January, 50, 55, 52.25),
	)

	result, err := e.RunPortfolio(context.Background(), equalWeightRequest())
	if err != nil {
		t.Fatalf("RunPortfolio: %v", err)
	}

	want := []float64{100000, 110000, 104500}
	if len(result.EquityCurve) != len(want) {
		t.Fatalf("curve has %d points, want %d", len(result.EquityCurve), len(want))
	}
	for i, w := range want {
		if !closeTo(result.EquityCurve[i].Value, w, 1e-6) {
			t.Errorf("curve[%d] = %v, want %v", i, result.EquityCurve[i].Value, w)
		}
	}
	if result.EquityCurve[0].Date != "2023-01" {
		t.Errorf("first label = %s, want 2023-01", result.EquityCurve[0].Date)
	}

	// Hand-computed statistics for the fixed curve.
	stats := result.Stats
	if !closeTo(stats.FinalValue, 104500, 1e-6) {
		t.Errorf("final value = %v", stats.FinalValue)
	}
	if !closeTo(stats.TotalReturn, 4.5, 1e-9) {
		t.Errorf("total return = %v, want 4.5", stats.TotalReturn)
	}
	wantCAGR := (math.Pow(1.045, 4) - 1) * 100
	if !closeTo(stats.CAGR, wantCAGR, 1e-9) {
		t.Errorf("cagr = %v, want %v", stats.CAGR, wantCAGR)
	}
	if !closeTo(stats.MaxDrawdown, 5.0, 1e-9) {
		t.Errorf("max drawdown = %v, want 5.0", stats.MaxDrawdown)
	}
	std := 0.075 * math.Sqrt2
	wantSharpe := (0.025*12 - 0.02) / (std * math.Sqrt(12))
	if !closeTo(stats.SharpeRatio, wantSharpe, 1e-9) {
		t.Errorf("sharpe = %v, want %v", stats.SharpeRatio, wantSharpe)
	}
	wantVol := std * math.Sqrt(12) * 100
	if !closeTo(stats.AnnualizedVolatility, wantVol, 1e-9) {
		t.Errorf("volatility = %v, want %v", stats.AnnualizedVolatility, wantVol)
	}

	// Each asset compounded its own slice identically.
	for _, ticker := range []string{"AAA", "BBB"} {
		asset, ok := result.IndividualStats[ticker]
		if !ok {
			t.Fatalf("missing individual stats for %s", ticker)
		}
		if asset.Weight != 0.5 {
			t.Errorf("%s weight = %v", ticker, asset.Weight)
		}
		if !closeTo(asset.TotalReturn, 4.5, 1e-9) {
			t.Errorf("%s total return = %v, want 4.5", ticker, asset.TotalReturn)
		}
	}
}

func TestRunPortfolioWeightTolerance(t *testing.T) {
	series := []models.PriceSeries{
		monthlySeries("AAA", 2023, time.January, 100, 110, 104.5),
		monthlySeries("BBB", 2023, time.January, 50, 55, 52.25),
	}

	tests := []struct {
		weights []float64
		wantErr bool
	}{
		{[]float64{0.5, 0.45}, true},   // sums to 0.95
		{[]float64{0.5, 0.55}, true},   // sums to 1.05
		{[]float64{0.5, 0.495}, false}, // sums to 0.995
		{[]float64{0.5, 0.505}, false}, // sums to 1.005
	}
	for _, tt := range tests {
		req := equalWeightRequest()
		req.Weights = tt.weights
		_, err := testEngine(series...).RunPortfolio(context.Background(), req)
		if (err != nil) != tt.wantErr {
			t.Errorf("weights %v: err = %v, wantErr %v", tt.weights, err, tt.wantErr)
		}
	}
}

func TestRunPortfolioValidation(t *testing.T) {
	e := testEngine(monthlySeries("AAA", 2023, time.January, 100, 110))

	req := equalWeightRequest()
	req.Tickers = []string{"AAA"}
	req.Weights = []float64{0.5, 0.5}
	if _, err := e.RunPortfolio(context.Background(), req); err == nil {
		t.Error("expected error for ticker/weight count mismatch")
	}

	req = equalWeightRequest()
	req.InitialCapital = 0
	if _, err := e.RunPortfolio(context.Background(), req); err == nil {
		t.Error("expected error for zero capital")
	}

	req = equalWeightRequest()
	req.StartDate = "not-a-date"
	if _, err := e.RunPortfolio(context.Background(), req); err == nil {
		t.Error("expected error for bad start date")
	}

	req = equalWeightRequest()
	req.EndDate = "2022-01-01"
	if _, err := e.RunPortfolio(context.Background(), req); err == nil {
		t.Error("expected error for inverted date range")
	}
}

func TestRunPortfolioMissingTicker(t *testing.T) {
	e := testEngine(monthlySeries("AAA", 2023, time.January, 100, 110, 104.5))
	req := equalWeightRequest()
	_, err := e.RunPortfolio(context.Background(), req)
	if !errors.Is(err, errors.ErrDataNotFound) {
		t.Fatalf("expected ErrDataNotFound, got %v", err)
	}
}

func TestRunPortfolioBenchmark(t *testing.T) {
	// Benchmark tracks the portfolio exactly, so correlation is 1.
	e := testEngine(
		monthlySeries("AAA", 2023, time.January, 100, 110, 104.5),
		monthlySeries("BBB", 2023, time.January, 50, 55, 52.25),
		monthlySeries("SPY", 2023, time.January, 400, 440, 418),
	)

	result, err := e.RunPortfolio(context.Background(), equalWeightRequest())
	if err != nil {
		t.Fatalf("RunPortfolio: %v", err)
	}
	if !closeTo(result.Stats.BenchmarkCorrelation, 1, 1e-9) {
		t.Errorf("correlation = %v, want 1", result.Stats.BenchmarkCorrelation)
	}
	if len(result.BenchmarkCurve) != 3 {
		t.Errorf("benchmark curve has %d points, want 3", len(result.BenchmarkCurve))
	}
	if !closeTo(result.BenchmarkStats.FinalValue, 104500, 1e-6) {
		t.Errorf("benchmark final value = %v", result.BenchmarkStats.FinalValue)
	}
}

func TestRunPortfolioBenchmarkUnavailable(t *testing.T) {
	e := testEngine(
		monthlySeries("AAA", 2023, time.January, 100, 110, 104.5),
		monthlySeries("BBB", 2023, time.January, 50, 55, 52.25),
	)

	result, err := e.RunPortfolio(context.Background(), equalWeightRequest())
	if err != nil {
		t.Fatalf("missing benchmark must not fail the run: %v", err)
	}
	if result.Stats.BenchmarkCorrelation != 0 {
		t.Errorf("correlation = %v, want 0", result.Stats.BenchmarkCorrelation)
	}
	if len(result.BenchmarkCurve) != 0 {
		t.Errorf("benchmark curve should be empty")
	}
	if result.BenchmarkStats.FinalValue != 100000 {
		t.Errorf("placeholder benchmark final value = %v", result.BenchmarkStats.FinalValue)
	}
}

func TestRunPortfolioOverlappingMonthsOnly(t *testing.T) {
	// BBB starts a month later; only the shared months count.
	e := testEngine(
		monthlySeries("AAA", 2023, time.January, 100, 110, 104.5, 110),
		monthlySeries("BBB", 2023, time.February, 50, 55, 52.25),
	)

	result, err := e.RunPortfolio(context.Background(), equalWeightRequest())
	if err != nil {
		t.Fatalf("RunPortfolio: %v", err)
	}
	if len(result.EquityCurve) != 3 {
		t.Fatalf("curve has %d points, want 3", len(result.EquityCurve))
	}
	if result.EquityCurve[0].Date != "2023-02" {
		t.Errorf("first label = %s, want 2023-02", result.EquityCurve[0].Date)
	}
	// First shared month still pins both returns to zero.
	if !closeTo(result.EquityCurve[0].Value, 100000, 1e-6) {
		t.Errorf("curve[0] = %v, want 100000", result.EquityCurve[0].Value)
	}
}
