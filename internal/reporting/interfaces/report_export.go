package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"packline-analytics/internal/forecast"
	"packline-analytics/internal/timeseries"
)

// CSVOptions control plain-text rendering. The zero value renders with a
// semicolon delimiter, decimal comma and two fractional digits, matching
// the plant's spreadsheet conventions.
type CSVOptions struct {
	Delimiter    rune
	DecimalComma bool
	FloatFormat  string
	LabelHeader  string
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ';'
		o.DecimalComma = true
	}
	if o.FloatFormat == "" {
		o.FloatFormat = "%.2f"
	}
	if o.LabelHeader == "" {
		o.LabelHeader = "window"
	}
	return o
}

func (o CSVOptions) formatValue(v timeseries.Value) string {
	f, ok := v.Float64()
	if !ok {
		return ""
	}
	out := fmt.Sprintf(o.FloatFormat, f)
	if o.DecimalComma {
		out = strings.Replace(out, ".", ",", 1)
	}
	return out
}

// BuildTableCSV renders an aggregate table as CSV, one row per window.
// Undefined cells render empty rather than as zero.
func BuildTableCSV(table *timeseries.Table, opts CSVOptions) ([]byte, error) {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = opts.Delimiter

	columns := table.Columns()
	if err := w.Write(append([]string{opts.LabelHeader}, columns...)); err != nil {
		return nil, err
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		line := make([]string, 0, len(columns)+1)
		line = append(line, row.Window.Label.String())
		for _, c := range columns {
			line = append(line, opts.formatValue(row.Value(c)))
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSeriesCSV renders a raw forecast series as CSV.
func BuildSeriesCSV(series *forecast.Series, opts CSVOptions) ([]byte, error) {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = opts.Delimiter

	if err := w.Write([]string{opts.LabelHeader, forecast.ColumnForecast, forecast.ColumnLower, forecast.ColumnUpper}); err != nil {
		return nil, err
	}
	for _, p := range series.Points {
		line := []string{
			p.At.Format("2006-01-02 15:04:05"),
			opts.formatValue(timeseries.Num(p.Value)),
			opts.formatValue(timeseries.Num(p.Lower)),
			opts.formatValue(timeseries.Num(p.Upper)),
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTableXLSX renders an aggregate table as a single-sheet workbook.
func BuildTableXLSX(title string, table *timeseries.Table) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "report"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", title)
	_ = f.SetCellValue(sheet, "A2", "window")
	columns := table.Columns()
	for j, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(j+2, 2)
		_ = f.SetCellValue(sheet, cell, c)
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(sheet, cell, row.Window.Label.String())
		for j, c := range columns {
			if v, ok := row.Value(c).Float64(); ok {
				cell, _ = excelize.CoordinatesToCellName(j+2, i+3)
				_ = f.SetCellValue(sheet, cell, v)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTablePDF renders an aggregate table as a minimal PDF report.
func BuildTablePDF(title string, table *timeseries.Table) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	columns := table.Columns()
	colWidth := 180.0 / float64(len(columns)+1)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(colWidth, 6, "window", "1", 0, "C", false, 0, "")
	for _, c := range columns {
		pdf.CellFormat(colWidth, 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		pdf.CellFormat(colWidth, 6, row.Window.Label.String(), "1", 0, "C", false, 0, "")
		for _, c := range columns {
			text := ""
			if v, ok := row.Value(c).Float64(); ok {
				text = fmt.Sprintf("%.2f", v)
			}
			pdf.CellFormat(colWidth, 6, text, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
