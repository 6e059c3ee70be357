// Package application wires the alignment engine into the plant's three
// standing analyses: weekly throughput, reject pack breakdowns and the
// shift-level production forecast.
package application

import (
	"context"

	"packline-analytics/internal/forecast"
	"packline-analytics/internal/timeseries"
)

// Stream field names as they appear in the machine log exports.
const (
	FieldExpectedCycles = "expected_cycles_per_minute"
	FieldActualCycles   = "actual_cycles_per_minute"
	FieldGoodPacks      = "good_packs"
	FieldRejectPacks    = "reject_packs"
	FieldRecipe         = "recipe"
	FieldErrorCode      = "code"
	FieldErrorDuration  = "duration_in_s"
)

// RecordSource delivers the raw batch of one logical stream.
type RecordSource interface {
	Load(ctx context.Context) ([]timeseries.Record, error)
}

// ReportSink persists finished report tables and forecast series.
type ReportSink interface {
	WriteTable(ctx context.Context, target string, table *timeseries.Table) error
	WriteSeries(ctx context.Context, target string, series *forecast.Series) error
}
