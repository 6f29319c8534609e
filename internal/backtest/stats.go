// Package backtest implements the two core engines: the monthly
// portfolio backtester and the single-cycle options strategy simulator.
// Both are pure functions of in-memory inputs to result structs; fetching
// and persistence stay with the caller.
package backtest

import (
	"math"

	"quant-backtester/internal/marketdata"
)

// CAGR returns the compound annual growth rate as a fraction. Degenerate
// inputs (non-positive initial value or zero years) return 0.
func CAGR(initial, final, years float64) float64 {
	if initial <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(final/initial, 1/years) - 1
}

// MaxDrawdown returns the largest peak-to-trough decline of a value
// series as a positive fraction of the peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	var worst float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return math.Abs(worst)
}

// AnnualizedVolatility returns the sample standard deviation of periodic
// returns scaled to a year.
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	return sampleStdDev(returns) * math.Sqrt(periodsPerYear)
}

// SharpeRatio returns annualized excess return over annualized standard
// deviation, or 0 when the deviation is 0.
func SharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	std := sampleStdDev(returns)
	if len(returns) == 0 || std == 0 {
		return 0
	}
	annualizedReturn := mean(returns) * periodsPerYear
	annualizedStd := std * math.Sqrt(periodsPerYear)
	return (annualizedReturn - riskFreeRate) / annualizedStd
}

// SortinoRatio is the Sharpe variant whose denominator uses only the
// standard deviation of negative returns. Returns 0 when there are no
// negative returns or their deviation is 0.
func SortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	downside := sampleStdDev(negative)
	if len(negative) == 0 || downside == 0 {
		return 0
	}
	annualizedReturn := mean(returns) * periodsPerYear
	return (annualizedReturn - riskFreeRate) / (downside * math.Sqrt(periodsPerYear))
}

// yearlyReturns reduces a month-labelled equity curve to year-over-year
// returns. Labels are "2006-01" strings; the leading partial year is the
// baseline, not a return.
func yearlyReturns(labels []string, values []float64) []float64 {
	annual := marketdata.ResampledSeries{}
	for i, l := range labels {
		year := l
		if len(year) >= 4 {
			year = year[:4]
		}
		if n := len(annual.Labels); n > 0 && annual.Labels[n-1] == year {
			annual.Closes[n-1] = values[i]
			continue
		}
		annual.Labels = append(annual.Labels, year)
		annual.Closes = append(annual.Closes, values[i])
	}
	return marketdata.ChangeReturns(annual.Closes)
}

// BestYear returns the maximum year-over-year return of a month-labelled
// equity curve, 0 when fewer than two calendar years are present.
func BestYear(labels []string, values []float64) float64 {
	returns := yearlyReturns(labels, values)
	if len(returns) == 0 {
		return 0
	}
	best := returns[0]
	for _, r := range returns[1:] {
		if r > best {
			best = r
		}
	}
	return best
}

// WorstYear returns the minimum year-over-year return of a month-labelled
// equity curve, 0 when fewer than two calendar years are present.
func WorstYear(labels []string, values []float64) float64 {
	returns := yearlyReturns(labels, values)
	if len(returns) == 0 {
		return 0
	}
	worst := returns[0]
	for _, r := range returns[1:] {
		if r < worst {
			worst = r
		}
	}
	return worst
}

// PearsonCorrelation returns the correlation of two equal-length return
// series, 0 for fewer than two points or a zero-variance input.
func PearsonCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	meanA, meanB := mean(a), mean(b)
	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
