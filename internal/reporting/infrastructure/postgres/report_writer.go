// Package postgres persists rendered report tables into a long-format
// Postgres table, one row per (target, window, column) cell.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"packline-analytics/internal/forecast"
	"packline-analytics/internal/timeseries"
)

const defaultReportTable = "report_cells"

// ReportWriter stores report tables for downstream dashboards.
type ReportWriter struct {
	db    *sql.DB
	table string
}

// Option configures the writer.
type Option func(*ReportWriter)

// WithTable overrides the default report table name.
func WithTable(table string) Option {
	return func(w *ReportWriter) {
		if table != "" {
			w.table = table
		}
	}
}

// NewReportWriter builds a writer.
func NewReportWriter(db *sql.DB, opts ...Option) (*ReportWriter, error) {
	if db == nil {
		return nil, errors.New("postgres: nil db")
	}
	w := &ReportWriter{db: db, table: defaultReportTable}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteTable replaces the target's cells with the table's contents in one
// transaction, so a rerun never leaves a half-written report behind.
func (w *ReportWriter) WriteTable(ctx context.Context, target string, table *timeseries.Table) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin %s: %w", target, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE target = $1`, w.table), target,
	); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", target, err)
	}

	insert := fmt.Sprintf(
		`INSERT INTO %s (target, row_index, window_label, column_name, value) VALUES ($1, $2, $3, $4, $5)`,
		w.table,
	)
	columns := table.Columns()
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		for _, c := range columns {
			var value sql.NullFloat64
			if v, ok := row.Value(c).Float64(); ok {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, insert, target, i, row.Window.Label.String(), c, value); err != nil {
				return fmt.Errorf("postgres: insert %s row %d: %w", target, i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", target, err)
	}
	return nil
}

// WriteSeries stores a raw forecast series under the target name, one row
// per forecast step and bound column.
func (w *ReportWriter) WriteSeries(ctx context.Context, target string, series *forecast.Series) error {
	rows := make([]timeseries.Row, 0, len(series.Points))
	for _, p := range series.Points {
		win := timeseries.Window{
			Start: p.At,
			End:   p.At.Add(series.Step),
			Label: timeseries.TimeLabel(p.At),
		}
		rows = append(rows, timeseries.NewRow(win, map[string]timeseries.Value{
			forecast.ColumnForecast: timeseries.Num(p.Value),
			forecast.ColumnLower:    timeseries.Num(p.Lower),
			forecast.ColumnUpper:    timeseries.Num(p.Upper),
		}))
	}
	table, err := timeseries.NewTable([]string{forecast.ColumnForecast, forecast.ColumnLower, forecast.ColumnUpper}, rows)
	if err != nil {
		return fmt.Errorf("postgres: series %s: %w", target, err)
	}
	return w.WriteTable(ctx, target+"_steps", table)
}
