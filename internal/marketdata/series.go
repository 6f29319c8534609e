package marketdata

import (
	"time"

	"quant-backtester/internal/models"
)

// ResampledSeries holds period-end closes with one label per period.
type ResampledSeries struct {
	Labels []string
	Closes []float64
}

// Len returns the number of periods.
func (r ResampledSeries) Len() int {
	return len(r.Closes)
}

// ResampleMonthly reduces a daily series to the last close of each
// calendar month, labelled "2006-01". Months with no observations are
// skipped, not interpolated.
func ResampleMonthly(series models.PriceSeries) ResampledSeries {
	return resample(series, func(d time.Time) string {
		return d.Format("2006-01")
	})
}

// ResampleAnnual reduces a daily series to the last close of each
// calendar year, labelled "2006".
func ResampleAnnual(series models.PriceSeries) ResampledSeries {
	return resample(series, func(d time.Time) string {
		return d.Format("2006")
	})
}

func resample(series models.PriceSeries, label func(time.Time) string) ResampledSeries {
	var out ResampledSeries
	for _, p := range series.Points {
		l := label(p.Date)
		if n := len(out.Labels); n > 0 && out.Labels[n-1] == l {
			out.Closes[n-1] = p.Close
			continue
		}
		out.Labels = append(out.Labels, l)
		out.Closes = append(out.Closes, p.Close)
	}
	return out
}

// Returns converts period-end closes to simple returns. The first period
// has no prior close and is reported as zero, keeping the output aligned
// with the input periods.
func Returns(closes []float64) []float64 {
	if len(closes) == 0 {
		return nil
	}
	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		returns[i] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// ChangeReturns converts period-end closes to simple returns, dropping
// the leading period. Used for year-over-year figures where a synthetic
// zero would distort best/worst rankings.
func ChangeReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// AlignByLabel intersects two resampled series on their labels, keeping
// only periods present in both, in a's order.
func AlignByLabel(a, b ResampledSeries) (ResampledSeries, ResampledSeries) {
	index := make(map[string]int, len(b.Labels))
	for i, l := range b.Labels {
		index[l] = i
	}
	var outA, outB ResampledSeries
	for i, l := range a.Labels {
		j, ok := index[l]
		if !ok {
			continue
		}
		outA.Labels = append(outA.Labels, l)
		outA.Closes = append(outA.Closes, a.Closes[i])
		outB.Labels = append(outB.Labels, l)
		outB.Closes = append(outB.Closes, b.Closes[j])
	}
	return outA, outB
}
