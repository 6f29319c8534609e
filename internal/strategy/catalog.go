// Package strategy provides the options strategy catalog: a closed set of
// named strategies, each a fixed leg composition with payoff, max
// profit/loss, and breakeven formulas.
//
// Multi-leg payoff formulas index strikes and premiums positionally:
// strikes[i] and premiums[i] belong to Legs[i] in declaration order. An
// iron condor is declared [long put wing, short put, short call, long
// call wing] with K1<K2<K3<K4; a bear put spread is [higher long put,
// lower short put]. Callers resolving strike selection rules must keep
// that per-leg pairing.
package strategy

import (
	"math"
	"sort"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/models"
)

// Kind identifies a catalog entry.
type Kind string

const (
	LongCall        Kind = "long_call"
	LongPut         Kind = "long_put"
	ShortCall       Kind = "short_call"
	ShortPut        Kind = "short_put"
	BullCallSpread  Kind = "bull_call_spread"
	BearPutSpread   Kind = "bear_put_spread"
	Straddle        Kind = "straddle"
	Strangle        Kind = "strangle"
	IronCondor      Kind = "iron_condor"
	IronButterfly   Kind = "iron_butterfly"
	ButterflySpread Kind = "butterfly_spread"
	CoveredCall     Kind = "covered_call"
	ProtectivePut   Kind = "protective_put"
	Collar          Kind = "collar"
)

// Unbounded is the sentinel for an unlimited max profit or max loss.
var Unbounded = math.Inf(1)

// IsUnbounded reports whether a bound is the unlimited sentinel.
func IsUnbounded(v float64) bool {
	return math.IsInf(v, 1)
}

// NoEntryPrice marks an absent entry stock price. Strategies with a stock
// leg then fall back to a documented approximation (stock assumed entered
// a fixed percentage away from the nearest option strike) instead of
// failing.
var NoEntryPrice = math.NaN()

// stockEntryOffset is that fixed percentage.
const stockEntryOffset = 0.05

type payoffFunc func(spot float64, strikes, premiums []float64, entryStock float64) float64
type boundFunc func(strikes, premiums []float64, entryStock float64) float64
type breakevenFunc func(strikes, premiums []float64, entryStock float64) []float64

// Strategy is one catalog entry: an immutable definition plus the four
// formula capabilities. The catalog is a closed enumeration, so a table of
// closures per kind replaces subclass dispatch.
type Strategy struct {
	kind       Kind
	def        models.StrategyDefinition
	payoff     payoffFunc
	maxProfit  boundFunc
	maxLoss    boundFunc
	breakevens breakevenFunc
}

// Kind returns the catalog key.
func (s *Strategy) Kind() Kind {
	return s.kind
}

// Definition returns the strategy's leg composition and descriptions.
func (s *Strategy) Definition() models.StrategyDefinition {
	return s.def
}

// Payoff returns the per-share P&L at the given spot price with all legs
// expired (European, cash-settled). Strikes and premiums are positional
// and must match the declared leg order.
func (s *Strategy) Payoff(spot float64, strikes, premiums []float64, entryStock float64) float64 {
	return s.payoff(spot, strikes, premiums, entryStock)
}

// MaxProfit returns the per-share maximum profit, or Unbounded.
func (s *Strategy) MaxProfit(strikes, premiums []float64, entryStock float64) float64 {
	return s.maxProfit(strikes, premiums, entryStock)
}

// MaxLoss returns the per-share maximum loss as a positive number, or
// Unbounded.
func (s *Strategy) MaxLoss(strikes, premiums []float64, entryStock float64) float64 {
	return s.maxLoss(strikes, premiums, entryStock)
}

// Breakevens returns zero, one, or two breakeven spot prices.
func (s *Strategy) Breakevens(strikes, premiums []float64, entryStock float64) []float64 {
	return s.breakevens(strikes, premiums, entryStock)
}

// NetPremium returns the entry cash flow per share: negative for a net
// debit, positive for a net credit.
func (s *Strategy) NetPremium(premiums []float64) float64 {
	var net float64
	for i, leg := range s.def.Legs {
		if leg.Position == models.Long {
			net -= premiums[i] * float64(leg.Quantity)
		} else {
			net += premiums[i] * float64(leg.Quantity)
		}
	}
	return net
}

// IsDebit reports whether entering the strategy costs money.
func (s *Strategy) IsDebit(premiums []float64) bool {
	return s.NetPremium(premiums) < 0
}

// RiskReward returns max loss divided by max profit. The second return is
// false when the ratio is undefined (unbounded profit or loss, or zero
// profit).
func (s *Strategy) RiskReward(strikes, premiums []float64, entryStock float64) (float64, bool) {
	maxProfit := s.MaxProfit(strikes, premiums, entryStock)
	maxLoss := s.MaxLoss(strikes, premiums, entryStock)
	if IsUnbounded(maxProfit) || IsUnbounded(maxLoss) || maxProfit == 0 {
		return 0, false
	}
	return maxLoss / maxProfit, true
}

// Strikes extracts the positional strike array from resolved legs.
func Strikes(legs []models.ResolvedLeg) []float64 {
	out := make([]float64, len(legs))
	for i, l := range legs {
		out[i] = l.Strike
	}
	return out
}

// Premiums extracts the positional premium array from resolved legs.
func Premiums(legs []models.ResolvedLeg) []float64 {
	out := make([]float64, len(legs))
	for i, l := range legs {
		out[i] = l.Premium
	}
	return out
}

var catalog = map[Kind]*Strategy{
	LongCall:        longCall(),
	LongPut:         longPut(),
	ShortCall:       shortCall(),
	ShortPut:        shortPut(),
	BullCallSpread:  bullCallSpread(),
	BearPutSpread:   bearPutSpread(),
	Straddle:        straddle(),
	Strangle:        strangle(),
	IronCondor:      ironCondor(),
	IronButterfly:   ironButterfly(),
	ButterflySpread: butterflySpread(),
	CoveredCall:     coveredCall(),
	ProtectivePut:   protectivePut(),
	Collar:          collar(),
}

// Get returns the catalog entry for a kind.
func Get(kind Kind) (*Strategy, error) {
	s, ok := catalog[kind]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownStrategy, "%q", kind)
	}
	return s, nil
}

// Kinds lists the catalog keys in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func callPayoff(spot, k float64) float64 {
	return math.Max(spot-k, 0)
}

func putPayoff(spot, k float64) float64 {
	return math.Max(k-spot, 0)
}

func hasEntry(entryStock float64) bool {
	return !math.IsNaN(entryStock)
}
