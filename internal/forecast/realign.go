package forecast

import (
	"fmt"
	"time"

	"packline-analytics/internal/timeseries"
)

// Realigned forecast column names.
const (
	ColumnForecast = "forecast"
	ColumnLower    = "lower"
	ColumnUpper    = "upper"
)

// Realign re-buckets a forecast series onto coarser reporting windows using
// mean reduction, then relabels the rows with the supplied calendar index.
// The calendar must have exactly one entry per reporting window; any
// mismatch is an AlignmentError, no values are guessed or truncated.
func Realign(series *Series, reportingWindow time.Duration, calendar []time.Time) (*timeseries.Table, error) {
	if series == nil || len(series.Points) == 0 {
		return nil, ErrEmptySeries
	}
	if reportingWindow <= 0 {
		return nil, fmt.Errorf("%w: non-positive reporting window", ErrInvalidOptions)
	}
	if reportingWindow < series.Step {
		return nil, fmt.Errorf("%w: reporting window narrower than forecast step", ErrInvalidOptions)
	}

	origin := series.Points[0].At
	bucketCount := int(series.Points[len(series.Points)-1].At.Sub(origin)/reportingWindow) + 1
	if bucketCount != len(calendar) {
		return nil, &AlignmentError{Want: len(calendar), Got: bucketCount}
	}

	type acc struct {
		value, lower, upper float64
		n                   int
	}
	buckets := make([]acc, bucketCount)
	for _, p := range series.Points {
		k := int(p.At.Sub(origin) / reportingWindow)
		buckets[k].value += p.Value
		buckets[k].lower += p.Lower
		buckets[k].upper += p.Upper
		buckets[k].n++
	}

	columns := []string{ColumnForecast, ColumnLower, ColumnUpper}
	rows := make([]timeseries.Row, 0, bucketCount)
	for i, b := range buckets {
		w := timeseries.Window{
			Start: calendar[i],
			End:   calendar[i].Add(reportingWindow),
			Label: timeseries.TimeLabel(calendar[i]),
		}
		cells := map[string]timeseries.Value{
			ColumnForecast: timeseries.Undefined(),
			ColumnLower:    timeseries.Undefined(),
			ColumnUpper:    timeseries.Undefined(),
		}
		if b.n > 0 {
			cells[ColumnForecast] = timeseries.Num(b.value / float64(b.n))
			cells[ColumnLower] = timeseries.Num(b.lower / float64(b.n))
			cells[ColumnUpper] = timeseries.Num(b.upper / float64(b.n))
		}
		rows = append(rows, timeseries.NewRow(w, cells))
	}
	return timeseries.NewTable(columns, rows)
}
