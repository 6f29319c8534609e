// Package models provides domain models for portfolio and options backtesting.
package models

import (
	"fmt"
	"time"
)

// OptionType represents the type of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// PositionType represents the direction of a position.
type PositionType string

const (
	Long  PositionType = "long"
	Short PositionType = "short"
)

// TradeAction represents a simulator trade event.
type TradeAction string

const (
	TradeOpen   TradeAction = "OPEN"
	TradeExpire TradeAction = "EXPIRE"
)

// PricePoint is a single daily close observation.
type PricePoint struct {
	Date  time.Time `json:"date" csv:"date"`
	Close float64   `json:"close" csv:"close"`
}

// PriceSeries is an ordered sequence of daily closes with strictly
// increasing dates. Series are immutable once fetched; each backtest run
// owns its series for the duration of one computation.
type PriceSeries struct {
	Ticker string
	Points []PricePoint
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the close prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// First returns the earliest observation in the series.
func (s PriceSeries) First() PricePoint {
	return s.Points[0]
}

// Last returns the latest observation in the series.
func (s PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// PortfolioSpec is a set of ticker/weight pairs. Weights are unit-less
// fractions whose sum must fall within WeightSumTolerance of 1.0.
type PortfolioSpec struct {
	Tickers []string
	Weights []float64
}

// WeightSumTolerance is the accepted deviation of the weight sum from 1.0.
const WeightSumTolerance = 0.01

// Validate checks ticker/weight counts, weight sum, and ticker uniqueness.
func (p PortfolioSpec) Validate() error {
	if len(p.Tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	if len(p.Tickers) != len(p.Weights) {
		return fmt.Errorf("ticker count %d does not match weight count %d", len(p.Tickers), len(p.Weights))
	}
	seen := make(map[string]bool, len(p.Tickers))
	for _, t := range p.Tickers {
		if seen[t] {
			return fmt.Errorf("duplicate ticker %q", t)
		}
		seen[t] = true
	}
	var sum float64
	for _, w := range p.Weights {
		sum += w
	}
	if sum < 1.0-WeightSumTolerance || sum > 1.0+WeightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0 (got %.4f)", sum)
	}
	return nil
}

// Weight returns the weight assigned to a ticker, or 0 if absent.
func (p PortfolioSpec) Weight(ticker string) float64 {
	for i, t := range p.Tickers {
		if t == ticker {
			return p.Weights[i]
		}
	}
	return 0
}

// OptionLeg is one option position within a strategy. Strike and premium
// are resolved at entry, not stored on the leg.
type OptionLeg struct {
	Type            OptionType   `json:"option_type"`
	Position        PositionType `json:"position_type"`
	StrikeSelection string       `json:"strike_selection"` // ATM, OTM_n%, ITM_n%, or absolute
	Quantity        int          `json:"quantity"`
}

// StockLeg is a share position for covered/collar style strategies.
type StockLeg struct {
	Position PositionType `json:"position_type"`
	Quantity int          `json:"quantity"` // shares, typically 100 per contract
}

// StrategyDefinition is an immutable catalog entry. Leg order is
// significant: payoff formulas index strikes and premiums by the same
// position as the declared legs.
type StrategyDefinition struct {
	Name        string     `json:"name"`
	Legs        []OptionLeg `json:"legs"`
	StockLeg    *StockLeg  `json:"stock_leg,omitempty"`
	Description string     `json:"description"`
	MaxProfit   string     `json:"max_profit"`
	MaxLoss     string     `json:"max_loss"`
	Breakeven   string     `json:"breakeven"`
}

// ResolvedLeg pairs a leg with the strike and premium derived at entry,
// so payoff inputs are never keyed by bare array position alone.
type ResolvedLeg struct {
	Leg     OptionLeg `json:"leg"`
	Strike  float64   `json:"strike"`
	Premium float64   `json:"premium"`
}

// Greeks holds the five option sensitivities. Theta is per calendar day,
// vega per one percentage point of volatility, rho per one percentage
// point of rate.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add accumulates another set of Greeks scaled by a position multiplier.
func (g *Greeks) Add(other Greeks, multiplier float64) {
	g.Delta += other.Delta * multiplier
	g.Gamma += other.Gamma * multiplier
	g.Theta += other.Theta * multiplier
	g.Vega += other.Vega * multiplier
	g.Rho += other.Rho * multiplier
}
