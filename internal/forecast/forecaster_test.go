package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"packline-analytics/internal/timeseries"
)

var monday = time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)

const shift = 8 * time.Hour

// shiftTable builds a contiguous fixed-grid table with one value per
// 8-hour window starting at monday.
func shiftTable(t *testing.T, values []timeseries.Value) *timeseries.Table {
	t.Helper()
	rows := make([]timeseries.Row, 0, len(values))
	for i, v := range values {
		start := monday.Add(time.Duration(i) * shift)
		w := timeseries.Window{Start: start, End: start.Add(shift), Label: timeseries.TimeLabel(start)}
		rows = append(rows, timeseries.NewRow(w, map[string]timeseries.Value{"good_packs": v}))
	}
	table, err := timeseries.NewTable([]string{"good_packs"}, rows)
	if err != nil {
		t.Fatalf("fixture table: %v", err)
	}
	return table
}

func repeating(pattern []float64, cycles int) []timeseries.Value {
	var out []timeseries.Value
	for c := 0; c < cycles; c++ {
		for _, v := range pattern {
			out = append(out, timeseries.Num(v))
		}
	}
	return out
}

func TestProjectContinuesSeasonalPattern(t *testing.T) {
	table := shiftTable(t, repeating([]float64{10, 20, 30}, 4))

	series, err := Project(table, Options{SeasonalPeriod: 3, Smoothing: 0.5, Horizon: 6})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(series.Points) != 6 {
		t.Fatalf("got %d points, want 6", len(series.Points))
	}
	want := []float64{10, 20, 30, 10, 20, 30}
	for i, p := range series.Points {
		if math.Abs(p.Value-want[i]) > 1e-9 {
			t.Fatalf("point %d = %v, want %v", i, p.Value, want[i])
		}
	}

	// The projection continues the fitted grid without gap or overlap.
	lastFitted := monday.Add(11 * shift)
	if !series.Points[0].At.Equal(lastFitted.Add(shift)) {
		t.Fatalf("first forecast instant %v does not continue the grid", series.Points[0].At)
	}
	for i := 1; i < len(series.Points); i++ {
		if got := series.Points[i].At.Sub(series.Points[i-1].At); got != shift {
			t.Fatalf("step %d is %v, want %v", i, got, shift)
		}
	}
}

func TestProjectRejectsFewerThanTwoCycles(t *testing.T) {
	table := shiftTable(t, repeating([]float64{10, 20, 30}, 1))

	_, err := Project(table, Options{SeasonalPeriod: 3, Smoothing: 0.5, Horizon: 3})
	var fitErr *ModelFitError
	if !errors.As(err, &fitErr) {
		t.Fatalf("got %v, want ModelFitError", err)
	}
	if fitErr.Cycles != 1 {
		t.Fatalf("reported %d cycles, want 1", fitErr.Cycles)
	}
}

func TestProjectExcludedPositionsAreAbsentNotZero(t *testing.T) {
	// Two calendar weeks of 8-hour shifts: weekdays produce a steady 30
	// packs, weekend shifts log zero. Fitting over 15 weekday shifts per
	// week must not be dragged down by the artificial weekend zeros.
	var values []timeseries.Value
	for i := 0; i < 42; i++ {
		day := monday.Add(time.Duration(i) * shift).Weekday()
		if day == time.Saturday || day == time.Sunday {
			values = append(values, timeseries.Num(0))
		} else {
			values = append(values, timeseries.Num(30))
		}
	}
	table := shiftTable(t, values)

	weekend := func(start time.Time) bool {
		d := start.Weekday()
		return d == time.Saturday || d == time.Sunday
	}
	series, err := Project(table, Options{SeasonalPeriod: 15, Smoothing: 0.3, Horizon: 15, Exclude: weekend})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for i, p := range series.Points {
		if math.Abs(p.Value-30) > 1e-6 {
			t.Fatalf("point %d = %v, want 30 (weekend zeros biased the fit)", i, p.Value)
		}
	}

	// The grid continues one step after the last included window, the
	// final Friday night shift.
	lastIncluded := time.Date(2022, 8, 12, 16, 0, 0, 0, time.UTC)
	if !series.Points[0].At.Equal(lastIncluded.Add(shift)) {
		t.Fatalf("first forecast instant %v, want %v", series.Points[0].At, lastIncluded.Add(shift))
	}
}

func TestProjectGapsAreSkippedNotZero(t *testing.T) {
	values := repeating([]float64{10, 20, 30}, 4)
	values[7] = timeseries.Undefined()
	table := shiftTable(t, values)

	series, err := Project(table, Options{SeasonalPeriod: 3, Smoothing: 0.5, Horizon: 3})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	want := []float64{10, 20, 30}
	for i, p := range series.Points {
		if math.Abs(p.Value-want[i]) > 1.0 {
			t.Fatalf("point %d = %v, want about %v", i, p.Value, want[i])
		}
	}
}

func TestProjectBandContainsPointEstimate(t *testing.T) {
	pattern := []float64{12, 19, 31, 11, 22, 28}
	table := shiftTable(t, repeating(pattern, 4))

	series, err := Project(table, Options{SeasonalPeriod: 6, Smoothing: 0.4, Horizon: 12, Confidence: 0.9})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for i, p := range series.Points {
		if p.Lower > p.Value || p.Value > p.Upper {
			t.Fatalf("point %d: band [%v, %v] does not contain %v", i, p.Lower, p.Upper, p.Value)
		}
	}
}

func TestProjectValidatesOptions(t *testing.T) {
	table := shiftTable(t, repeating([]float64{1, 2}, 3))

	cases := []Options{
		{SeasonalPeriod: 1, Smoothing: 0.5, Horizon: 1},
		{SeasonalPeriod: 2, Smoothing: 0, Horizon: 1},
		{SeasonalPeriod: 2, Smoothing: 1.5, Horizon: 1},
		{SeasonalPeriod: 2, Smoothing: 0.5, Horizon: 0},
		{SeasonalPeriod: 2, Smoothing: 0.5, Horizon: 1, Confidence: 1.2},
	}
	for i, opts := range cases {
		if _, err := Project(table, opts); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("case %d: got %v, want ErrInvalidOptions", i, err)
		}
	}
}
