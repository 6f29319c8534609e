package backtest

import (
	"context"
	"strings"
	"time"

	"quant-backtester/internal/config"
	"quant-backtester/internal/errors"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/marketdata"
	"quant-backtester/internal/models"
	"quant-backtester/internal/parallel"
)

const dateLayout = "2006-01-02"

// PortfolioRequest is the input contract for a portfolio backtest.
type PortfolioRequest struct {
	Tickers            []string  `json:"tickers"`
	Weights            []float64 `json:"weights"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	InitialCapital     float64   `json:"initial_capital"`
	RebalanceFrequency string    `json:"rebalance_frequency"`
}

// PortfolioStats carries summary statistics. Return-like figures are
// percentages; Sharpe and Sortino are unitless ratios.
type PortfolioStats struct {
	InitialCapital       float64 `json:"initial_capital"`
	FinalValue           float64 `json:"final_value"`
	TotalReturn          float64 `json:"total_return"`
	CAGR                 float64 `json:"cagr"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	BestYear             float64 `json:"best_year"`
	WorstYear            float64 `json:"worst_year"`
	BenchmarkCorrelation float64 `json:"benchmark_correlation"`
}

// CurvePoint is one period of an equity curve, labelled by year-month.
type CurvePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// AssetStats isolates one holding's contribution, computed on its own
// weighted capital slice.
type AssetStats struct {
	Weight      float64 `json:"weight"`
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
}

// DateRange reports the actual span of data used, which may be narrower
// than requested.
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// PortfolioResult is the output contract for a portfolio backtest.
type PortfolioResult struct {
	Stats           PortfolioStats        `json:"stats"`
	EquityCurve     []CurvePoint          `json:"equity_curve"`
	IndividualStats map[string]AssetStats `json:"individual_stats"`
	BenchmarkCurve  []CurvePoint          `json:"benchmark_curve"`
	BenchmarkStats  PortfolioStats        `json:"benchmark_stats"`
	DateRange       DateRange             `json:"date_range"`
}

// Engine runs portfolio backtests over a price fetcher. It holds no
// per-run state; one Engine serves concurrent runs.
type Engine struct {
	fetcher marketdata.Fetcher
	cfg     config.EngineConfig
}

// NewEngine creates an engine with the given fetcher and configuration.
func NewEngine(fetcher marketdata.Fetcher, cfg config.EngineConfig) *Engine {
	return &Engine{fetcher: fetcher, cfg: cfg}
}

// RunPortfolio validates the request, fetches all series, and computes
// the monthly-rebalanced equity curve and statistics.
func (e *Engine) RunPortfolio(ctx context.Context, req PortfolioRequest) (*PortfolioResult, error) {
	logger := logging.FromContext(ctx)

	spec := models.PortfolioSpec{Tickers: req.Tickers, Weights: req.Weights}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if req.InitialCapital <= 0 {
		return nil, errors.NewValidationError("initial_capital", req.InitialCapital, "must be positive")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	logging.LogRunStarted(logger, string(models.RunPortfolio), strings.Join(req.Tickers, ","), req.StartDate, req.EndDate)
	began := time.Now()

	series, err := e.fetchAll(ctx, req.Tickers, start, end)
	if err != nil {
		return nil, err
	}

	// Resample to monthly and intersect on the months every ticker has.
	monthly := make([]marketdata.ResampledSeries, len(series))
	for i, s := range series {
		monthly[i] = marketdata.ResampleMonthly(s)
	}
	labels := commonLabels(monthly)
	if len(labels) == 0 {
		return nil, errors.NewDataError(req.Tickers[0], "no overlapping monthly data", errors.ErrInsufficientData)
	}
	for i := range monthly {
		monthly[i] = selectLabels(monthly[i], labels)
	}

	// Per-asset monthly returns with the first month pinned to zero, then
	// the fixed-weight portfolio return per month.
	assetReturns := make([][]float64, len(monthly))
	for i := range monthly {
		assetReturns[i] = marketdata.Returns(monthly[i].Closes)
	}
	portfolioReturns := make([]float64, len(labels))
	for m := range labels {
		for i, w := range req.Weights {
			portfolioReturns[m] += w * assetReturns[i][m]
		}
	}

	curve := equityCurve(portfolioReturns, req.InitialCapital)
	stats := e.curveStats(labels, curve, portfolioReturns, req.InitialCapital)

	individual := make(map[string]AssetStats, len(req.Tickers))
	years := float64(len(labels)) / 12
	for i, ticker := range req.Tickers {
		slice := req.InitialCapital * req.Weights[i]
		assetCurve := equityCurve(assetReturns[i], slice)
		final := assetCurve[len(assetCurve)-1]
		individual[ticker] = AssetStats{
			Weight:      req.Weights[i],
			TotalReturn: (final/slice - 1) * 100,
			CAGR:        CAGR(slice, final, years) * 100,
		}
	}

	result := &PortfolioResult{
		Stats:           stats,
		EquityCurve:     curvePoints(labels, curve),
		IndividualStats: individual,
		BenchmarkStats:  emptyBenchmarkStats(req.InitialCapital),
		DateRange: DateRange{
			Start: actualStart(series).Format(dateLayout),
			End:   actualEnd(series).Format(dateLayout),
		},
	}

	e.applyBenchmark(ctx, result, req, start, end, labels, portfolioReturns)

	logging.LogRunFinished(logger, string(models.RunPortfolio), time.Since(began), stats.FinalValue)
	return result, nil
}

// applyBenchmark runs the benchmark series through the same pipeline.
// Benchmark data being unavailable degrades the result, it does not fail
// the run.
func (e *Engine) applyBenchmark(ctx context.Context, result *PortfolioResult, req PortfolioRequest, start, end time.Time, labels []string, portfolioReturns []float64) {
	logger := logging.FromContext(ctx)

	bench, err := e.fetcher.Daily(ctx, e.cfg.BenchmarkTicker)
	if err != nil {
		logger.Warn().Err(err).Str("ticker", e.cfg.BenchmarkTicker).Msg("benchmark unavailable")
		result.Stats.BenchmarkCorrelation = 0
		return
	}
	bench = clipSeries(bench, start, end)
	benchMonthly := marketdata.ResampleMonthly(bench)
	if benchMonthly.Len() == 0 {
		result.Stats.BenchmarkCorrelation = 0
		return
	}

	benchReturns := marketdata.Returns(benchMonthly.Closes)
	benchCurve := equityCurve(benchReturns, req.InitialCapital)
	benchStats := e.curveStats(benchMonthly.Labels, benchCurve, benchReturns, req.InitialCapital)
	benchStats.BenchmarkCorrelation = 1

	result.BenchmarkCurve = curvePoints(benchMonthly.Labels, benchCurve)
	result.BenchmarkStats = benchStats

	// Correlation only over the overlapping months.
	a, b := alignReturns(labels, portfolioReturns, benchMonthly.Labels, benchReturns)
	result.Stats.BenchmarkCorrelation = PearsonCorrelation(a, b)
}

// curveStats computes the shared statistics block for any equity curve
// with monthly returns. The synthetic first-month zero return is excluded
// from volatility-based figures.
func (e *Engine) curveStats(labels []string, curve, returns []float64, initialCapital float64) PortfolioStats {
	final := curve[len(curve)-1]
	years := float64(len(curve)) / 12

	statReturns := returns
	if len(returns) > 1 {
		statReturns = returns[1:]
	}

	return PortfolioStats{
		InitialCapital:       initialCapital,
		FinalValue:           final,
		TotalReturn:          (final/initialCapital - 1) * 100,
		CAGR:                 CAGR(initialCapital, final, years) * 100,
		MaxDrawdown:          MaxDrawdown(curve) * 100,
		AnnualizedVolatility: AnnualizedVolatility(statReturns, 12) * 100,
		SharpeRatio:          SharpeRatio(statReturns, e.cfg.SharpeRiskFreeRate, 12),
		SortinoRatio:         SortinoRatio(statReturns, e.cfg.SharpeRiskFreeRate, 12),
		BestYear:             BestYear(labels, curve) * 100,
		WorstYear:            WorstYear(labels, curve) * 100,
	}
}

func (e *Engine) fetchAll(ctx context.Context, tickers []string, start, end time.Time) ([]models.PriceSeries, error) {
	series, err := parallel.Map(ctx, 4, tickers, func(ctx context.Context, ticker string) (models.PriceSeries, error) {
		s, err := e.fetcher.Daily(ctx, ticker)
		if err != nil {
			return models.PriceSeries{}, err
		}
		s = clipSeries(s, start, end)
		if s.Len() == 0 {
			return models.PriceSeries{}, errors.NewDataError(ticker, "no data in range", errors.ErrDataNotFound)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewValidationError("start_date", startDate, "expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewValidationError("end_date", endDate, "expected YYYY-MM-DD")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.NewValidationError("start_date", startDate, "must precede end_date")
	}
	return start, end, nil
}

func clipSeries(s models.PriceSeries, start, end time.Time) models.PriceSeries {
	var points []models.PricePoint
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		points = append(points, p)
	}
	return models.PriceSeries{Ticker: s.Ticker, Points: points}
}

// commonLabels intersects monthly labels across all series, keeping the
// first series' order.
func commonLabels(series []marketdata.ResampledSeries) []string {
	if len(series) == 0 {
		return nil
	}
	var labels []string
	for _, l := range series[0].Labels {
		inAll := true
		for _, s := range series[1:] {
			if !containsLabel(s.Labels, l) {
				inAll = false
				break
			}
		}
		if inAll {
			labels = append(labels, l)
		}
	}
	return labels
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func selectLabels(s marketdata.ResampledSeries, labels []string) marketdata.ResampledSeries {
	index := make(map[string]int, len(s.Labels))
	for i, l := range s.Labels {
		index[l] = i
	}
	out := marketdata.ResampledSeries{
		Labels: labels,
		Closes: make([]float64, len(labels)),
	}
	for i, l := range labels {
		out.Closes[i] = s.Closes[index[l]]
	}
	return out
}

func equityCurve(returns []float64, initialCapital float64) []float64 {
	curve := make([]float64, len(returns))
	value := initialCapital
	for i, r := range returns {
		value *= 1 + r
		curve[i] = value
	}
	return curve
}

func curvePoints(labels []string, values []float64) []CurvePoint {
	points := make([]CurvePoint, len(values))
	for i := range values {
		points[i] = CurvePoint{Date: labels[i], Value: values[i]}
	}
	return points
}

func alignReturns(labelsA []string, a []float64, labelsB []string, b []float64) ([]float64, []float64) {
	index := make(map[string]int, len(labelsB))
	for i, l := range labelsB {
		index[l] = i
	}
	var outA, outB []float64
	for i, l := range labelsA {
		if j, ok := index[l]; ok {
			outA = append(outA, a[i])
			outB = append(outB, b[j])
		}
	}
	return outA, outB
}

func emptyBenchmarkStats(initialCapital float64) PortfolioStats {
	return PortfolioStats{
		InitialCapital:       initialCapital,
		FinalValue:           initialCapital,
		BenchmarkCorrelation: 1,
	}
}

func actualStart(series []models.PriceSeries) time.Time {
	start := series[0].Points[0].Date
	for _, s := range series[1:] {
		if d := s.Points[0].Date; d.After(start) {
			start = d
		}
	}
	return start
}

func actualEnd(series []models.PriceSeries) time.Time {
	end := series[0].Points[len(series[0].Points)-1].Date
	for _, s := range series[1:] {
		if d := s.Points[len(s.Points)-1].Date; d.Before(end) {
			end = d
		}
	}
	return end
}
