package models

import (
	"testing"
	"time"
)

func TestPortfolioSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    PortfolioSpec
		wantErr bool
	}{
		{
			name: "valid equal weights",
			spec: PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.5, 0.5}},
		},
		{
			name: "weights at lower tolerance boundary",
			spec: PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.5, 0.495}},
		},
		{
			name: "weights at upper tolerance boundary",
			spec: PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.5, 0.505}},
		},
		{
			name:    "weights sum too low",
			spec:    PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.5, 0.45}},
			wantErr: true,
		},
		{
			name:    "weights sum too high",
			spec:    PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.5, 0.55}},
			wantErr: true,
		},
		{
			name:    "count mismatch",
			spec:    PortfolioSpec{Tickers: []string{"AAA"}, Weights: []float64{0.5, 0.5}},
			wantErr: true,
		},
		{
			name:    "duplicate ticker",
			spec:    PortfolioSpec{Tickers: []string{"AAA", "AAA"}, Weights: []float64{0.5, 0.5}},
			wantErr: true,
		},
		{
			name:    "no tickers",
			spec:    PortfolioSpec{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPortfolioSpecWeight(t *testing.T) {
	spec := PortfolioSpec{Tickers: []string{"AAA", "BBB"}, Weights: []float64{0.6, 0.4}}
	if got := spec.Weight("BBB"); got != 0.4 {
		t.Errorf("Weight(BBB) = %v, want 0.4", got)
	}
	if got := spec.Weight("CCC"); got != 0 {
		t.Errorf("Weight(CCC) = %v, want 0", got)
	}
}

func TestPriceSeriesAccessors(t *testing.T) {
	s := PriceSeries{
		Ticker: "AAA",
		Points: []PricePoint{
			{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), Close: 101},
		},
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
	closes := s.Closes()
	if closes[0] != 100 || closes[1] != 101 {
		t.Errorf("Closes = %v", closes)
	}
	if s.First().Close != 100 || s.Last().Close != 101 {
		t.Errorf("First/Last = %v / %v", s.First(), s.Last())
	}
}

func TestGreeksAddScalesAndSigns(t *testing.T) {
	var g Greeks
	g.Add(Greeks{Delta: 0.4, Gamma: 0.05, Theta: -0.02, Vega: 0.15, Rho: 0.08}, -2)
	if g.Delta != -0.8 {
		t.Errorf("delta = %v, want -0.8", g.Delta)
	}
	if g.Theta != 0.04 {
		t.Errorf("theta = %v, want 0.04", g.Theta)
	}
}
