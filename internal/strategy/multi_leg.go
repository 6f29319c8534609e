package strategy

import "quant-backtester/internal/models"

// Four-leg combinations, butterflies, and stock-leg strategies.

func ironCondor() *Strategy {
	netCredit := func(premiums []float64) float64 {
		return premiums[1] + premiums[2] - premiums[0] - premiums[3]
	}
	return &Strategy{
		kind: IronCondor,
		def: models.StrategyDefinition{
			Name: "Iron Condor",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "OTM_10%", Quantity: 1},
				{Type: models.Put, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
				{Type: models.Call, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
				{Type: models.Call, Position: models.Long, StrikeSelection: "OTM_10%", Quantity: 1},
			},
			Description: "Sell OTM strangle, buy further OTM strangle for protection.",
			MaxProfit:   "Net credit received",
			MaxLoss:     "Width of spread - Net credit",
			Breakeven:   "Short Put Strike - Credit / Short Call Strike + Credit",
		},
		// Legs at K1<K2<K3<K4: long put K1, short put K2, short call K3,
		// long call K4.
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			putSpread := putPayoff(spot, strikes[1]) - putPayoff(spot, strikes[0])
			callSpread := callPayoff(spot, strikes[2]) - callPayoff(spot, strikes[3])
			return netCredit(premiums) - putSpread - callSpread
		},
		maxProfit: func(_, premiums []float64, _ float64) float64 {
			return netCredit(premiums)
		},
		maxLoss: func(strikes, premiums []float64, _ float64) float64 {
			// Assumes equal-width wings.
			width := strikes[1] - strikes[0]
			return width - netCredit(premiums)
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			credit := netCredit(premiums)
			return []float64{strikes[1] - credit, strikes[2] + credit}
		},
	}
}

func ironButterfly() *Strategy {
	netCredit := func(premiums []float64) float64 {
		return premiums[1] + premiums[2] - premiums[0] - premiums[3]
	}
	return &Strategy{
		kind: IronButterfly,
		def: models.StrategyDefinition{
			Name: "Iron Butterfly",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
				{Type: models.Put, Position: models.Short, StrikeSelection: "ATM", Quantity: 1},
				{Type: models.Call, Position: models.Short, StrikeSelection: "ATM", Quantity: 1},
				{Type: models.Call, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			Description: "Short straddle with protective wings.",
			MaxProfit:   "Net credit received",
			MaxLoss:     "Width - Net credit",
			Breakeven:   "ATM Strike +/- Net Credit",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			longPut := putPayoff(spot, strikes[0])
			shortPut := putPayoff(spot, strikes[1])
			shortCall := callPayoff(spot, strikes[2])
			longCall := callPayoff(spot, strikes[3])
			return netCredit(premiums) - shortPut - shortCall + longPut + longCall
		},
		maxProfit: func(_, premiums []float64, _ float64) float64 {
			return netCredit(premiums)
		},
		maxLoss: func(strikes, premiums []float64, _ float64) float64 {
			width := strikes[1] - strikes[0]
			return width - netCredit(premiums)
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			credit := netCredit(premiums)
			atm := strikes[1]
			return []float64{atm - credit, atm + credit}
		},
	}
}

func butterflySpread() *Strategy {
	netDebit := func(premiums []float64) float64 {
		return premiums[0] + premiums[2] - 2*premiums[1]
	}
	return &Strategy{
		kind: ButterflySpread,
		def: models.StrategyDefinition{
			Name: "Butterfly Spread",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Long, StrikeSelection: "ITM_5%", Quantity: 1},
				{Type: models.Call, Position: models.Short, StrikeSelection: "ATM", Quantity: 2},
				{Type: models.Call, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			Description: "Buy 1 lower, sell 2 middle, buy 1 higher call.",
			MaxProfit:   "Width - Net Debit",
			MaxLoss:     "Net Debit",
			Breakeven:   "Lower Strike + Debit / Upper Strike - Debit",
		},
		payoff: func(spot float64, strikes, premiums []float64, _ float64) float64 {
			return callPayoff(spot, strikes[0]) -
				2*callPayoff(spot, strikes[1]) +
				callPayoff(spot, strikes[2]) -
				netDebit(premiums)
		},
		maxProfit: func(strikes, premiums []float64, _ float64) float64 {
			width := strikes[1] - strikes[0]
			return width - netDebit(premiums)
		},
		maxLoss: func(_, premiums []float64, _ float64) float64 {
			return netDebit(premiums)
		},
		breakevens: func(strikes, premiums []float64, _ float64) []float64 {
			debit := netDebit(premiums)
			return []float64{strikes[0] + debit, strikes[2] - debit}
		},
	}
}

func coveredCall() *Strategy {
	return &Strategy{
		kind: CoveredCall,
		def: models.StrategyDefinition{
			Name: "Covered Call",
			Legs: []models.OptionLeg{
				{Type: models.Call, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			StockLeg:    &models.StockLeg{Position: models.Long, Quantity: 100},
			Description: "Own stock, sell OTM call for income.",
			MaxProfit:   "Strike - Stock Price + Premium",
			MaxLoss:     "Stock Price - Premium (if stock goes to 0)",
			Breakeven:   "Stock Price - Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 - stockEntryOffset)
			}
			stockPnL := spot - entryStock
			optionPnL := premiums[0] - callPayoff(spot, strikes[0])
			return stockPnL + optionPnL
		},
		maxProfit: func(strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 - stockEntryOffset)
			}
			return strikes[0] - entryStock + premiums[0]
		},
		maxLoss: func(strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 - stockEntryOffset)
			}
			return entryStock - premiums[0]
		},
		breakevens: func(strikes, premiums []float64, entryStock float64) []float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 - stockEntryOffset)
			}
			return []float64{entryStock - premiums[0]}
		},
	}
}

func protectivePut() *Strategy {
	return &Strategy{
		kind: ProtectivePut,
		def: models.StrategyDefinition{
			Name: "Protective Put",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			StockLeg:    &models.StockLeg{Position: models.Long, Quantity: 100},
			Description: "Own stock, buy put for downside protection.",
			MaxProfit:   "Unlimited upside - Premium",
			MaxLoss:     "Stock Price - Strike + Premium",
			Breakeven:   "Stock Price + Premium",
		},
		payoff: func(spot float64, strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			stockPnL := spot - entryStock
			putPnL := putPayoff(spot, strikes[0]) - premiums[0]
			return stockPnL + putPnL
		},
		maxProfit: func(_, _ []float64, _ float64) float64 {
			return Unbounded
		},
		maxLoss: func(strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			return entryStock - strikes[0] + premiums[0]
		},
		breakevens: func(strikes, premiums []float64, entryStock float64) []float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			return []float64{entryStock + premiums[0]}
		},
	}
}

func collar() *Strategy {
	return &Strategy{
		kind: Collar,
		def: models.StrategyDefinition{
			Name: "Collar",
			Legs: []models.OptionLeg{
				{Type: models.Put, Position: models.Long, StrikeSelection: "OTM_5%", Quantity: 1},
				{Type: models.Call, Position: models.Short, StrikeSelection: "OTM_5%", Quantity: 1},
			},
			StockLeg:    &models.StockLeg{Position: models.Long, Quantity: 100},
			Description: "Own stock, buy put, sell call. Limits both risk and reward.",
			MaxProfit:   "Call Strike - Stock Price + Net Credit/Debit",
			MaxLoss:     "Stock Price - Put Strike + Net Credit/Debit",
			Breakeven:   "Stock Price +/- Net Credit/Debit",
		},
		// Put strike at strikes[0] (lower), call strike at strikes[1].
		payoff: func(spot float64, strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			netCost := premiums[0] - premiums[1]
			stockPnL := spot - entryStock
			return stockPnL + putPayoff(spot, strikes[0]) - callPayoff(spot, strikes[1]) - netCost
		},
		maxProfit: func(strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[1] * (1 - stockEntryOffset)
			}
			netCost := premiums[0] - premiums[1]
			return strikes[1] - entryStock - netCost
		},
		maxLoss: func(strikes, premiums []float64, entryStock float64) float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			netCost := premiums[0] - premiums[1]
			return entryStock - strikes[0] + netCost
		},
		breakevens: func(strikes, premiums []float64, entryStock float64) []float64 {
			if !hasEntry(entryStock) {
				entryStock = strikes[0] * (1 + stockEntryOffset)
			}
			return []float64{entryStock + premiums[0] - premiums[1]}
		},
	}
}
