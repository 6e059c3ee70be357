package interfaces

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"packline-analytics/internal/forecast"
	"packline-analytics/internal/timeseries"
)

// FileFormat selects the on-disk rendering of a file sink.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	FormatPDF  FileFormat = "pdf"
)

// FileSink persists report tables under a directory, one file per target.
type FileSink struct {
	dir    string
	format FileFormat
	csv    CSVOptions
}

// NewFileSink builds a sink writing the given format into dir.
func NewFileSink(dir string, format FileFormat, csvOpts CSVOptions) (*FileSink, error) {
	if dir == "" {
		return nil, errors.New("interfaces: empty output dir")
	}
	switch format {
	case FormatCSV, FormatXLSX, FormatPDF:
	default:
		return nil, fmt.Errorf("interfaces: unsupported format %q", format)
	}
	return &FileSink{dir: dir, format: format, csv: csvOpts}, nil
}

// WriteTable renders and persists an aggregate table under the target name.
func (s *FileSink) WriteTable(ctx context.Context, target string, table *timeseries.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	switch s.format {
	case FormatCSV:
		data, err = BuildTableCSV(table, s.csv)
	case FormatXLSX:
		data, err = BuildTableXLSX(target, table)
	case FormatPDF:
		data, err = BuildTablePDF(target, table)
	}
	if err != nil {
		return fmt.Errorf("interfaces: render %s: %w", target, err)
	}
	return s.write(target+"."+string(s.format), data)
}

// WriteSeries persists a raw forecast series under the target name. The
// per-step output always renders as CSV; richer formats receive the
// realigned report table through WriteTable instead.
func (s *FileSink) WriteSeries(ctx context.Context, target string, series *forecast.Series) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := BuildSeriesCSV(series, s.csv)
	if err != nil {
		return fmt.Errorf("interfaces: render %s: %w", target, err)
	}
	return s.write(target+"_steps.csv", data)
}

func (s *FileSink) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("interfaces: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("interfaces: write %s: %w", path, err)
	}
	return nil
}
