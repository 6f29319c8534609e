package strategy

import "quant-backtester/internal/models"

// Single-leg strategies. Payoffs take strikes[0]/premiums[0]; the entry
// stock price is unused.

func longCall() *Strategy {
	return &Strategy{
		kind: LongCall,
		def: models.StrategyDefinition{
			Name: "Long Call",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
			},
			Description: "Buy a call option. Profit from price increase.",
			MaxProfit:   "Unlimited",
			MaxLoss:     "Premium paid",
			Breakeven:   "Strike + Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			return callPayoff(spot, strikes[0]) - premiums[0]
		},
		maxProfit: func(_, _ []float64, _ float64) float64 {
			return Unbounded
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] + premiums[0]}
		},
	}
}

func longPut() *Strategy {
	return &Strategy{
		kind: LongPut,
		def: models.StrategyDefinition{
			Name: "Long Put",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
			},
			Description: "Buy a put option. Profit from price decrease.",
			MaxProfit:   "Strike - Premium (if stock goes to 0)",
			MaxLoss:     "Premium paid",
			Breakeven:   "Strike - Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			return putPayoff(spot, strikes[0]) - premiums[0]
		},
		maxProfit: func(strikes, premiums []float64, _ float64) float64 {
			return strikes[0] - premiums[0]
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] - premiums[0]}
		},
	}
}

func shortCall() *Strategy {
	return &Strategy{
		kind: ShortCall,
		def: models.StrategyDefinition{
			Name: "Short Call",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Short, StrikeSelection: "ATM", Quantity: 1},
			},
			Description: "Sell a call option. Profit from time decay or price decrease.",
			MaxProfit:   "Premium received",
			MaxLoss:     "Unlimited",
			Breakeven:   "Strike + Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			return premiums[0] - callPayoff(spot, strikes[0])
		},
		maxProfit: func(_, premiums []float64, _ float64) float64 {
			return premiums[0]
		},
		maxLoss: func(_, _ []float64, _ float64) float64 {
			return Unbounded
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] + premiums[0]}
		},
	}
}

func shortPut() *Strategy {
	return &Strategy{
		kind: ShortPut,
		def: models.StrategyDefinition{
			Name: "Short Put",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Short, StrikeSelection: "ATM", Quantity: 1},
			},
			Description: "Sell a put option. Profit from time decay or price increase.",
			MaxProfit:   "Premium received",
			MaxLoss:     "Strike - Premium (if stock goes to 0)",
			Breakeven:   "Strike - Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			return premiums[0] - putPayoff(spot, strikes[0])
		},
		maxProfit: func(_, premiums []float64, _ float64) float64 {
			return premiums[0]
		},
		maxLoss: func(strikes, premiums []float64, _ float64) float64 {
			return strikes[0] - premiums[0]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] - premiums[0]}
		},
	}
}
