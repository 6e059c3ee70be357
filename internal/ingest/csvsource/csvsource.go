// Package csvsource reads machine log exports in CSV form and turns them
// into raw records for normalization.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"packline-analytics/internal/timeseries"
)

// Time layouts tried in order when parsing the timestamp column.
var defaultLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Columns maps CSV header names onto record fields. Columns not listed are
// ignored, so identifier columns need no special handling.
type Columns struct {
	Timestamp string
	Numeric   []string
	Text      []string
	// Layouts overrides the timestamp layouts tried in order.
	Layouts []string
}

// Source reads one CSV file per Load call.
type Source struct {
	path    string
	columns Columns
}

// New builds a CSV source for the given file.
func New(path string, columns Columns) (*Source, error) {
	if path == "" {
		return nil, errors.New("csvsource: empty path")
	}
	if columns.Timestamp == "" {
		return nil, errors.New("csvsource: timestamp column required")
	}
	return &Source{path: path, columns: columns}, nil
}

// Load reads and parses the whole file. Empty cells become missing fields;
// an unparseable timestamp or number is fatal and reported with its row.
func (s *Source) Load(ctx context.Context) ([]timeseries.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("csvsource: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("csvsource: %s: read header: %w", s.path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	tsCol, ok := index[s.columns.Timestamp]
	if !ok {
		return nil, fmt.Errorf("csvsource: %s: no column %q", s.path, s.columns.Timestamp)
	}

	layouts := s.columns.Layouts
	if len(layouts) == 0 {
		layouts = defaultLayouts
	}

	var records []timeseries.Record
	for row := 2; ; row++ {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvsource: %s row %d: %w", s.path, row, err)
		}

		ts, err := parseTime(line[tsCol], layouts)
		if err != nil {
			return nil, fmt.Errorf("csvsource: %s row %d: %w", s.path, row, err)
		}
		rec := timeseries.Record{TS: ts}
		for _, name := range s.columns.Numeric {
			col, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("csvsource: %s: no column %q", s.path, name)
			}
			cell := line[col]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csvsource: %s row %d: column %q: %w", s.path, row, name, err)
			}
			if rec.Numeric == nil {
				rec.Numeric = make(map[string]float64, len(s.columns.Numeric))
			}
			rec.Numeric[name] = v
		}
		for _, name := range s.columns.Text {
			col, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("csvsource: %s: no column %q", s.path, name)
			}
			if line[col] == "" {
				continue
			}
			if rec.Text == nil {
				rec.Text = make(map[string]string, len(s.columns.Text))
			}
			rec.Text[name] = line[col]
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseTime(cell string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", cell)
}
