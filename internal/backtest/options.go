package backtest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/models"
	"quant-backtester/internal/pricing"
	"quant-backtester/internal/strategy"
)

// Volatility model selectors for an options run.
const (
	VolModelHistorical = "historical"
	VolModelFixed      = "fixed"
)

const payoffGridPoints = 100

// OptionsRequest is the input contract for an options strategy backtest.
// StrikeSelection overrides a leg's default selection rule, keyed
// "leg_0", "leg_1", ... in declaration order.
type OptionsRequest struct {
	Ticker           string            `json:"ticker"`
	StrategyType     string            `json:"strategy_type"`
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	InitialCapital   float64           `json:"initial_capital"`
	DaysToExpiration int               `json:"days_to_expiration"`
	StrikeSelection  map[string]string `json:"strike_selection,omitempty"`
	PositionSize     int               `json:"position_size"`
	VolatilityModel  string            `json:"volatility_model"`
	FixedVolatility  *float64          `json:"fixed_volatility,omitempty"`
}

// OptionsStats summarizes a completed options run. Dollar figures are
// scaled by contract multiplier and position size.
type OptionsStats struct {
	InitialCapital  float64   `json:"initial_capital"`
	FinalValue      float64   `json:"final_value"`
	TotalPnL        float64   `json:"total_pnl"`
	TotalReturn     float64   `json:"total_return"`
	MaxProfit       float64   `json:"max_profit"`
	MaxLoss         float64   `json:"max_loss"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	WinRate         float64   `json:"win_rate"`
	Strategy        string    `json:"strategy"`
	DaysHeld        int       `json:"days_held"`
	EntryDate       string    `json:"entry_date"`
	ExitDate        string    `json:"exit_date"`
	BreakevenPoints []float64 `json:"breakeven_points"`
}

// DailyPnLPoint is one mark-to-market row. DailyPnL is the cumulative
// P&L since entry; PositionValue is capital plus that P&L.
type DailyPnLPoint struct {
	Date          string  `json:"date"`
	SpotPrice     float64 `json:"spot_price"`
	PositionValue float64 `json:"position_value"`
	DailyPnL      float64 `json:"daily_pnl"`
	DTE           int     `json:"dte"`
}

// GreeksPoint is the summed position Greeks for one day.
type GreeksPoint struct {
	Date  string  `json:"date"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// PayoffPoint is one grid point of the static expiry payoff diagram.
type PayoffPoint struct {
	Price  float64 `json:"price"`
	Payoff float64 `json:"payoff"`
}

// TradeEvent records entry and expiry.
type TradeEvent struct {
	Date          string             `json:"date"`
	Action        models.TradeAction `json:"action"`
	Strategy      string             `json:"strategy"`
	Strikes       []float64          `json:"strikes"`
	Premiums      []float64          `json:"premiums,omitempty"`
	FinalPremiums []float64          `json:"final_premiums,omitempty"`
	NetPremium    *float64           `json:"net_premium,omitempty"`
	FinalPnL      *float64           `json:"final_pnl,omitempty"`
	SpotPrice     float64            `json:"spot_price"`
}

// OptionsResult is the output contract for an options strategy backtest.
type OptionsResult struct {
	Stats         OptionsStats    `json:"stats"`
	DailyPnL      []DailyPnLPoint `json:"daily_pnl"`
	GreeksSeries  []GreeksPoint   `json:"greeks_series"`
	PayoffDiagram []PayoffPoint   `json:"payoff_diagram"`
	Trades        []TradeEvent    `json:"trades"`
}

// RunOptions simulates one strategy cycle: entry, daily mark-to-market,
// expiry. Premiums and Greeks for the whole holding period are computed
// with the vectorized kernel per leg.
func (e *Engine) RunOptions(ctx context.Context, req OptionsRequest) (*OptionsResult, error) {
	logger := logging.WithTicker(logging.FromContext(ctx), req.Ticker)

	if err := e.validateOptions(req); err != nil {
		return nil, err
	}
	strat, err := strategy.Get(strategy.Kind(req.StrategyType))
	if err != nil {
		return nil, err
	}
	logging.LogRunStarted(logger, string(models.RunOptions), req.Ticker, req.StartDate, req.EndDate)
	began := time.Now()

	series, err := e.fetcher.Daily(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	series = clipSeries(series, start, end)

	dte := req.DaysToExpiration
	if series.Len() < dte {
		return nil, errors.NewValidationError("days_to_expiration", dte,
			fmt.Sprintf("price series has only %d observations", series.Len()))
	}

	prices := series.Closes()
	vol := e.volatilitySeries(req, prices)

	// Entry: resolve strikes against the entry spot, then price each leg
	// at the full time to expiry.
	def := strat.Definition()
	entrySpot := prices[0]
	entryDate := series.Points[0].Date
	resolved := resolveLegs(ctx, def.Legs, req.StrikeSelection, entrySpot)

	tEntry := float64(dte) / 365
	for i := range resolved {
		resolved[i].Premium = pricing.BlackScholes(
			entrySpot, resolved[i].Strike, tEntry, e.cfg.RiskFreeRate, vol[0], resolved[i].Leg.Type,
		).Value
	}
	strikes := strategy.Strikes(resolved)
	entryPremiums := strategy.Premiums(resolved)

	scale := float64(e.cfg.ContractMultiplier) * float64(req.PositionSize)
	netPremium := strat.NetPremium(entryPremiums) * scale

	trades := []TradeEvent{{
		Date:       entryDate.Format(dateLayout),
		Action:     models.TradeOpen,
		Strategy:   def.Name,
		Strikes:    strikes,
		Premiums:   entryPremiums,
		NetPremium: &netPremium,
		SpotPrice:  entrySpot,
	}}

	// The run holds exactly dte daily rows: row i has dte-1-i days left,
	// so the last row marks at expiry.
	days := dte
	spots := prices[:days]
	ts := make([]float64, days)
	dtes := make([]int, days)
	for i := 0; i < days; i++ {
		dtes[i] = dte - 1 - i
		ts[i] = float64(dtes[i]) / 365
	}

	legPremiums := make([][]float64, len(resolved))
	legGreeks := make([][]models.Greeks, len(resolved))
	for i, leg := range resolved {
		legPremiums[i] = pricing.BlackScholesVector(spots, leg.Strike, ts, e.cfg.RiskFreeRate, vol[:days], leg.Leg.Type)
		legGreeks[i] = pricing.CalcGreeksVector(spots, leg.Strike, ts, e.cfg.RiskFreeRate, vol[:days], leg.Leg.Type)
	}

	dailyPnL := make([]DailyPnLPoint, 0, days)
	greeksSeries := make([]GreeksPoint, 0, days)
	var totalPnL float64

	for day := 0; day < days; day++ {
		spot := spots[day]
		date := series.Points[day].Date.Format(dateLayout)

		var optionPnL float64
		for i, leg := range resolved {
			legPnL := (legPremiums[i][day] - entryPremiums[i]) * float64(leg.Leg.Quantity)
			if leg.Leg.Position == models.Short {
				legPnL = -legPnL
			}
			optionPnL += legPnL
		}

		var stockPnL float64
		if def.StockLeg != nil {
			stockPnL = (spot - entrySpot) * float64(def.StockLeg.Quantity)
			if def.StockLeg.Position == models.Short {
				stockPnL = -stockPnL
			}
		}

		totalPnL = (optionPnL*float64(e.cfg.ContractMultiplier) + stockPnL) * float64(req.PositionSize)
		dailyPnL = append(dailyPnL, DailyPnLPoint{
			Date:          date,
			SpotPrice:     spot,
			PositionValue: req.InitialCapital + totalPnL,
			DailyPnL:      totalPnL,
			DTE:           dtes[day],
		})

		// Greeks are undefined at expiry and omitted rather than zeroed.
		if ts[day] > 0 {
			var position models.Greeks
			for i, leg := range resolved {
				mult := float64(leg.Leg.Quantity)
				if leg.Leg.Position == models.Short {
					mult = -mult
				}
				position.Add(legGreeks[i][day], mult)
			}
			if def.StockLeg != nil {
				if def.StockLeg.Position == models.Long {
					position.Delta++
				} else {
					position.Delta--
				}
			}
			greeksSeries = append(greeksSeries, GreeksPoint{
				Date:  date,
				Delta: position.Delta,
				Gamma: position.Gamma,
				Theta: position.Theta,
				Vega:  position.Vega,
				Rho:   position.Rho,
			})
		}
	}

	finalPremiums := make([]float64, len(resolved))
	for i := range resolved {
		finalPremiums[i] = legPremiums[i][days-1]
	}
	finalPnL := totalPnL
	trades = append(trades, TradeEvent{
		Date:          dailyPnL[days-1].Date,
		Action:        models.TradeExpire,
		Strategy:      def.Name,
		Strikes:       strikes,
		FinalPremiums: finalPremiums,
		FinalPnL:      &finalPnL,
		SpotPrice:     spots[days-1],
	})

	entryStock := strategy.NoEntryPrice
	if def.StockLeg != nil {
		entryStock = entrySpot
	}

	result := &OptionsResult{
		Stats:         e.optionsStats(req, strat, dailyPnL, strikes, entryPremiums, entryStock),
		DailyPnL:      dailyPnL,
		GreeksSeries:  greeksSeries,
		PayoffDiagram: payoffDiagram(strat, entrySpot, strikes, entryPremiums, entryStock, scale),
		Trades:        trades,
	}

	logger.Debug().
		Str("strategy", req.StrategyType).
		Float64("final_pnl", finalPnL).
		Int("days_held", days).
		Msg("options simulation settled")
	logging.LogRunFinished(logger, string(models.RunOptions), time.Since(began), result.Stats.FinalValue)
	return result, nil
}

func (e *Engine) validateOptions(req OptionsRequest) error {
	if req.InitialCapital <= 0 {
		return errors.NewValidationError("initial_capital", req.InitialCapital, "must be positive")
	}
	if req.DaysToExpiration < 1 {
		return errors.NewValidationError("days_to_expiration", req.DaysToExpiration, "must be at least 1")
	}
	if req.PositionSize < 1 {
		return errors.NewValidationError("position_size", req.PositionSize, "must be at least 1")
	}
	switch req.VolatilityModel {
	case VolModelHistorical:
	case VolModelFixed:
		if req.FixedVolatility == nil {
			return errors.NewValidationError("fixed_volatility", nil, "required when volatility_model is fixed")
		}
		if *req.FixedVolatility <= 0 {
			return errors.NewValidationError("fixed_volatility", *req.FixedVolatility, "must be positive")
		}
	default:
		return errors.NewValidationError("volatility_model", req.VolatilityModel, "must be historical or fixed")
	}
	return nil
}

// volatilitySeries produces one volatility value per price observation:
// a flat override in fixed mode, otherwise gap-filled rolling historical
// volatility.
func (e *Engine) volatilitySeries(req OptionsRequest, prices []float64) []float64 {
	if req.VolatilityModel == VolModelFixed {
		vol := make([]float64, len(prices))
		for i := range vol {
			vol[i] = *req.FixedVolatility
		}
		return vol
	}
	hv := pricing.HistoricalVolatility(prices, e.cfg.HistVolWindow, e.cfg.TradingDaysPerYear)
	return pricing.FillVolatility(hv, pricing.FillForward, e.cfg.FallbackVolatility)
}

// resolveLegs turns each leg's selection rule into a numeric strike
// against the entry spot, pairing leg, strike, and (later) premium in one
// record.
func resolveLegs(ctx context.Context, legs []models.OptionLeg, overrides map[string]string, spot float64) []models.ResolvedLeg {
	logger := logging.FromContext(ctx)
	resolved := make([]models.ResolvedLeg, len(legs))
	for i, leg := range legs {
		selection := leg.StrikeSelection
		if override, ok := overrides[fmt.Sprintf("leg_%d", i)]; ok {
			selection = override
		}
		strike, err := resolveStrike(selection, leg.Type, spot)
		if err != nil {
			logger.Warn().
				Str("selection", selection).
				Int("leg", i).
				Msg("unparseable strike selection, using spot")
			strike = spot
		}
		resolved[i] = models.ResolvedLeg{Leg: leg, Strike: strike}
	}
	return resolved
}

// resolveStrike maps ATM/OTM_n%/ITM_n%/absolute to a price. Out-of-the-
// money is above spot for calls and below for puts; in-the-money is the
// reverse.
func resolveStrike(selection string, typ models.OptionType, spot float64) (float64, error) {
	switch {
	case selection == "ATM":
		return spot, nil
	case strings.HasPrefix(selection, "OTM_"):
		pct, err := parsePercent(strings.TrimPrefix(selection, "OTM_"))
		if err != nil {
			return 0, err
		}
		if typ == models.Call {
			return spot * (1 + pct/100), nil
		}
		return spot * (1 - pct/100), nil
	case strings.HasPrefix(selection, "ITM_"):
		pct, err := parsePercent(strings.TrimPrefix(selection, "ITM_"))
		if err != nil {
			return 0, err
		}
		if typ == models.Call {
			return spot * (1 - pct/100), nil
		}
		return spot * (1 + pct/100), nil
	default:
		return strconv.ParseFloat(selection, 64)
	}
}

func parsePercent(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
}

func (e *Engine) optionsStats(req OptionsRequest, strat *strategy.Strategy, dailyPnL []DailyPnLPoint, strikes, entryPremiums []float64, entryStock float64) OptionsStats {
	pnls := make([]float64, len(dailyPnL))
	for i, p := range dailyPnL {
		pnls[i] = p.DailyPnL
	}
	finalPnL := pnls[len(pnls)-1]

	maxProfit, maxLoss := pnls[0], pnls[0]
	for _, p := range pnls[1:] {
		maxProfit = math.Max(maxProfit, p)
		maxLoss = math.Min(maxLoss, p)
	}

	winRate := 0.0
	if finalPnL > 0 {
		winRate = 100.0
	}

	return OptionsStats{
		InitialCapital:  req.InitialCapital,
		FinalValue:      req.InitialCapital + finalPnL,
		TotalPnL:        finalPnL,
		TotalReturn:     finalPnL / req.InitialCapital * 100,
		MaxProfit:       maxProfit,
		MaxLoss:         maxLoss,
		MaxDrawdown:     pnlDrawdown(pnls),
		WinRate:         winRate,
		Strategy:        strat.Definition().Name,
		DaysHeld:        len(dailyPnL),
		EntryDate:       dailyPnL[0].Date,
		ExitDate:        dailyPnL[len(dailyPnL)-1].Date,
		BreakevenPoints: strat.Breakevens(strikes, entryPremiums, entryStock),
	}
}

// pnlDrawdown is the largest peak-to-trough drop of a cumulative P&L
// series, in dollars. The curve can be negative throughout, so this is
// not a percentage-of-peak figure.
func pnlDrawdown(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	peak := pnls[0]
	var worst float64
	for _, p := range pnls {
		if p > peak {
			peak = p
		}
		if dd := p - peak; dd < worst {
			worst = dd
		}
	}
	return math.Abs(worst)
}

// payoffDiagram evaluates the expiry payoff over a fixed grid spanning
// 80% to 120% of the strike and spot range, a static time-zero view
// using entry premiums.
func payoffDiagram(strat *strategy.Strategy, spot float64, strikes, premiums []float64, entryStock, scale float64) []PayoffPoint {
	lo, hi := spot, spot
	for _, k := range strikes {
		lo = math.Min(lo, k)
		hi = math.Max(hi, k)
	}
	lo *= 0.8
	hi *= 1.2

	points := make([]PayoffPoint, payoffGridPoints)
	step := (hi - lo) / float64(payoffGridPoints-1)
	for i := range points {
		price := lo + step*float64(i)
		points[i] = PayoffPoint{
			Price:  price,
			Payoff: strat.Payoff(price, strikes, premiums, entryStock) * scale,
		}
	}
	return points
}
