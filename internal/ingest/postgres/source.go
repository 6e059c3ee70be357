// Package postgres loads raw telemetry records from a Postgres measurement
// table, one row per (timestamp, field) pair.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"packline-analytics/internal/timeseries"
)

const defaultMeasurementTable = "machine_measurements"

// Source reads one logical stream from a measurement table.
type Source struct {
	db     *sql.DB
	table  string
	stream string
}

// Option configures the source.
type Option func(*Source)

// WithTable overrides the default measurement table name.
func WithTable(table string) Option {
	return func(s *Source) {
		if table != "" {
			s.table = table
		}
	}
}

// NewSource builds a Postgres-backed source for one stream.
func NewSource(db *sql.DB, stream string, opts ...Option) (*Source, error) {
	if db == nil {
		return nil, errors.New("postgres: nil db")
	}
	if stream == "" {
		return nil, errors.New("postgres: empty stream name")
	}
	s := &Source{db: db, table: defaultMeasurementTable, stream: stream}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads every measurement of the stream and folds rows sharing a
// timestamp into one record. Ordering is left to the normalizer.
func (s *Source) Load(ctx context.Context) ([]timeseries.Record, error) {
	query := fmt.Sprintf(
		`SELECT ts, field_key, value_numeric, value_text FROM %s WHERE stream = $1`,
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, query, s.stream)
	if err != nil {
		return nil, fmt.Errorf("postgres: load stream %q: %w", s.stream, err)
	}
	defer rows.Close()

	byTS := make(map[time.Time]*timeseries.Record)
	var order []time.Time
	for rows.Next() {
		var (
			ts      time.Time
			key     string
			numeric sql.NullFloat64
			text    sql.NullString
		)
		if err := rows.Scan(&ts, &key, &numeric, &text); err != nil {
			return nil, fmt.Errorf("postgres: scan stream %q: %w", s.stream, err)
		}
		rec, ok := byTS[ts]
		if !ok {
			rec = &timeseries.Record{TS: ts}
			byTS[ts] = rec
			order = append(order, ts)
		}
		if numeric.Valid {
			if rec.Numeric == nil {
				rec.Numeric = make(map[string]float64)
			}
			rec.Numeric[key] = numeric.Float64
		}
		if text.Valid {
			if rec.Text == nil {
				rec.Text = make(map[string]string)
			}
			rec.Text[key] = text.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load stream %q: %w", s.stream, err)
	}

	records := make([]timeseries.Record, 0, len(order))
	for _, ts := range order {
		records = append(records, *byTS[ts])
	}
	return records, nil
}
