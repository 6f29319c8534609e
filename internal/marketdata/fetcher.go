// Package marketdata loads and reshapes daily price history. The engine
// only ever sees a validated PriceSeries: dates strictly increasing,
// closes strictly positive.
package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/logging"
	"quant-backtester/internal/models"
)

// Fetcher supplies daily close history for a ticker.
type Fetcher interface {
	Daily(ctx context.Context, ticker string) (models.PriceSeries, error)
}

// csvDate parses the date column as a bare calendar date.
type csvDate struct {
	time.Time
}

func (d *csvDate) UnmarshalCSV(s string) error {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d csvDate) MarshalCSV() (string, error) {
	return d.Format("2006-01-02"), nil
}

type csvRow struct {
	Date  csvDate `csv:"date"`
	Close float64 `csv:"close"`
}

// CSVFetcher reads one TICKER.csv file per ticker from a directory. Files
// carry a header row with date and close columns.
type CSVFetcher struct {
	dir string
}

// NewCSVFetcher creates a fetcher rooted at dir.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{dir: dir}
}

// Daily loads and validates the series for ticker.
func (f *CSVFetcher) Daily(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}

	path := filepath.Join(f.dir, strings.ToUpper(ticker)+".csv")
	series, err := LoadCSV(path, ticker)
	if err != nil {
		return models.PriceSeries{}, err
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("ticker", series.Ticker).
		Int("points", series.Len()).
		Msg("loaded price series")
	return series, nil
}

// LoadCSV parses and validates one price file, independent of the
// fetcher's directory layout.
func LoadCSV(path, ticker string) (models.PriceSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.PriceSeries{}, errors.NewDataError(ticker, "no price file", errors.ErrDataNotFound)
		}
		return models.PriceSeries{}, errors.NewDataError(ticker, "open price file", err)
	}
	defer file.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return models.PriceSeries{}, errors.NewDataError(ticker, "parse price file", err)
	}

	points := make([]models.PricePoint, len(rows))
	for i, r := range rows {
		points[i] = models.PricePoint{Date: r.Date.Time, Close: r.Close}
	}
	series := models.PriceSeries{Ticker: strings.ToUpper(ticker), Points: points}
	if err := Validate(series); err != nil {
		return models.PriceSeries{}, err
	}
	return series, nil
}

// Save writes a series back to the directory in the same format Daily
// reads, for caching externally fetched history.
func (f *CSVFetcher) Save(series models.PriceSeries) error {
	rows := make([]csvRow, series.Len())
	for i, p := range series.Points {
		rows[i] = csvRow{Date: csvDate{p.Date}, Close: p.Close}
	}

	path := filepath.Join(f.dir, strings.ToUpper(series.Ticker)+".csv")
	file, err := os.Create(path)
	if err != nil {
		return errors.NewDataError(series.Ticker, "create price file", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.NewDataError(series.Ticker, "write price file", err)
	}
	return nil
}

// MemoryFetcher serves preloaded series, keyed by upper-cased ticker.
type MemoryFetcher struct {
	series map[string]models.PriceSeries
}

// NewMemoryFetcher creates a fetcher over a fixed set of series.
func NewMemoryFetcher(series ...models.PriceSeries) *MemoryFetcher {
	m := make(map[string]models.PriceSeries, len(series))
	for _, s := range series {
		m[strings.ToUpper(s.Ticker)] = s
	}
	return &MemoryFetcher{series: m}
}

// Daily returns the preloaded series for ticker.
func (f *MemoryFetcher) Daily(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	s, ok := f.series[strings.ToUpper(ticker)]
	if !ok {
		return models.PriceSeries{}, errors.NewDataError(ticker, "no series loaded", errors.ErrDataNotFound)
	}
	return s, nil
}

// Validate checks series invariants: non-empty, strictly increasing
// dates, strictly positive closes.
func Validate(series models.PriceSeries) error {
	if series.Len() == 0 {
		return errors.NewDataError(series.Ticker, "empty series", errors.ErrInsufficientData)
	}
	if !sort.SliceIsSorted(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	}) {
		return errors.NewDataError(series.Ticker, "dates not sorted", nil)
	}
	for i, p := range series.Points {
		if p.Close <= 0 {
			return errors.NewDataError(series.Ticker, "non-positive close", nil)
		}
		if i > 0 && !series.Points[i-1].Date.Before(p.Date) {
			return errors.NewDataError(series.Ticker, "duplicate date", nil)
		}
	}
	return nil
}
