package pricing

import "math"

// DefaultFallbackVolatility is used when a volatility series has no
// defined values at all.
const DefaultFallbackVolatility = 0.30

// HistoricalVolatility computes annualized rolling historical volatility
// from a daily price series:
//
//	HV[i] = stddev(log returns over trailing window) * sqrt(tradingDaysPerYear)
//
// The standard deviation is Bessel-corrected (divide by N-1). Positions
// before the first full window are NaN; callers fill them (see
// FillVolatility).
func HistoricalVolatility(prices []float64, window, tradingDaysPerYear int) []float64 {
	hv := make([]float64, len(prices))
	for i := range hv {
		hv[i] = math.NaN()
	}
	if len(prices) < 2 || window < 2 {
		return hv
	}

	logReturns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		logReturns[i-1] = math.Log(prices[i] / prices[i-1])
	}

	annualize := math.Sqrt(float64(tradingDaysPerYear))
	for i := window; i < len(prices); i++ {
		hv[i] = sampleStdDev(logReturns[i-window:i]) * annualize
	}
	return hv
}

// FillMethod selects how undefined volatility values are filled.
type FillMethod string

const (
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
	FillMean     FillMethod = "mean"
)

// FillVolatility returns a copy of hv with NaN gaps filled. FillForward
// carries the last defined value forward and then fills leading gaps
// backward from the first defined value. If the whole series is undefined
// the fallback constant is used throughout.
func FillVolatility(hv []float64, method FillMethod, fallback float64) []float64 {
	out := make([]float64, len(hv))
	copy(out, hv)

	switch method {
	case FillBackward:
		next := math.NaN()
		for i := len(out) - 1; i >= 0; i-- {
			if math.IsNaN(out[i]) {
				out[i] = next
			} else {
				next = out[i]
			}
		}
	case FillMean:
		var sum float64
		var n int
		for _, v := range out {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			for i, v := range out {
				if math.IsNaN(v) {
					out[i] = mean
				}
			}
		}
	default: // FillForward
		prev := math.NaN()
		for i, v := range out {
			if math.IsNaN(v) {
				out[i] = prev
			} else {
				prev = v
			}
		}
		// Leading gaps take the first defined value.
		first := math.NaN()
		for _, v := range out {
			if !math.IsNaN(v) {
				first = v
				break
			}
		}
		for i := range out {
			if math.IsNaN(out[i]) {
				out[i] = first
			} else {
				break
			}
		}
	}

	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = fallback
		}
	}
	return out
}

// sampleStdDev is the Bessel-corrected standard deviation.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n <= 1 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)

	var bias float64
	for _, x := range xs {
		d := x - mean
		bias += d * d
	}
	return math.Sqrt(bias / float64(n-1))
}
