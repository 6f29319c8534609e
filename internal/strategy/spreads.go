package strategy

import "quant-backtester/internal/models"

// Vertical spreads, straddles, and strangles.

func bullCallSpread() *Strategy {
	return &Strategy{
		kind: BullCallSpread,
		def: models.StrategyDefinition{
			Name: "Bull Call Spread",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
				{Type: models.Call, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			Description: "Buy lower strike call, sell higher strike call.",
			MaxProfit:   "Width - Net Debit",
			MaxLoss:     "Net Debit",
			Breakeven:   "Lower Strike + Net Debit",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			netDebit := premiums[0] - premiums[1]
			return callPayoff(spot, strikes[0]) - callPayoff(spot, strikes[1]) - netDebit
		},
		maxProfit: func(strikes, premiums []float64, _ float64) float64 {
			width := strikes[1] - strikes[0]
			return width - (premiums[0] - premiums[1])
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0] - premiums[1]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] + premiums[0] - premiums[1]}
		},
	}
}

func bearPutSpread() *Strategy {
	return &Strategy{
		kind: BearPutSpread,
		def: models.StrategyDefinition{
			Name: "Bear Put Spread",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
				{Type: models.Put, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			Description: "Buy higher strike put, sell lower strike put.",
			MaxProfit:   "Width - Net Debit",
			MaxLoss:     "Net Debit",
			Breakeven:   "Higher Strike - Net Debit",
		},
		// Long put at strikes[0] (higher), short put at strikes[1] (lower).
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			netDebit := premiums[0] - premiums[1]
			return putPayoff(spot, strikes[0]) - putPayoff(spot, strikes[1]) - netDebit
		},
		maxProfit: func(strikes, premiums []float64, _ float64) float64 {
			width := strikes[0] - strikes[1]
			return width - (premiums[0] - premiums[1])
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0] - premiums[1]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			return []float64{strikes[0] - (premiums[0] - premiums[1])}
		},
	}
}

func straddle() *Strategy {
	return &Strategy{
		kind: Straddle,
		def: models.StrategyDefinition{
			Name: "Long Straddle",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
				{Type: models.Put, Position: models.Long, StrikeSelection: "ATM", Quantity: 1},
			},
			Description: "Buy ATM call and put. Profit from large price movement.",
			MaxProfit:   "Unlimited",
			MaxLoss:     "Total premium paid",
			Breakeven:   "Strike +/- Total Premium",
		},
		// Both legs share the strike.
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			total := premiums[0] + premiums[1]
			return callPayoff(spot, strikes[0]) + putPayoff(spot, strikes[0]) - total
		},
		maxProfit: func(_, _ []float64, _ float64) float64 {
			return Unbounded
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0] + premiums[1]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			total := premiums[0] + premiums[1]
			return []float64{strikes[0] - total, strikes[0] + total}
		},
	}
}

func strangle() *Strategy {
	return &Strategy{
		kind: Strangle,
		def: models.StrategyDefinition{
			Name: "Long Strangle",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
				{Type: models.Put, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			Description: "Buy OTM call and put. Cheaper than straddle.",
			MaxProfit:   "Unlimited",
			MaxLoss:     "Total premium paid",
			Breakeven:   "Call Strike + Premium / Put Strike - Premium",
		},
		// Call strike at strikes[0] (higher), put strike at strikes[1] (lower).
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			total := premiums[0] + premiums[1]
			return callPayoff(spot, strikes[0]) + putPayoff(spot, strikes[1]) - total
		},
		maxProfit: func(_, _ []float64, _ float64) float64 {
			return Unbounded
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return premiums[0] + premiums[1]
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			total := premiums[0] + premiums[1]
			return []float64{strikes[1] - total, strikes[0] + total}
		},
	}
}
