package forecast

import (
	"errors"
	"math"
	"testing"
	"time"
)

func fixtureSeries(n int) *Series {
	s := &Series{Step: shift}
	for i := 0; i < n; i++ {
		v := float64(i + 1)
		s.Points = append(s.Points, Point{
			At:    monday.Add(time.Duration(i) * shift),
			Value: v,
			Lower: v - 1,
			Upper: v + 1,
		})
	}
	return s
}

func TestRealignLengthMismatch(t *testing.T) {
	series := fixtureSeries(6) // two days of shifts -> 2 reporting windows

	calendar := []time.Time{monday, monday.AddDate(0, 0, 7), monday.AddDate(0, 0, 14)}
	_, err := Realign(series, 24*time.Hour, calendar)
	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("got %v, want AlignmentError", err)
	}
	if alignErr.Want != 3 || alignErr.Got != 2 {
		t.Fatalf("error lacks context: %+v", alignErr)
	}
}

func TestRealignIdentityWhenWindowEqualsStep(t *testing.T) {
	series := fixtureSeries(4)
	calendar := make([]time.Time, 4)
	for i := range calendar {
		calendar[i] = monday.AddDate(0, 0, 7*i)
	}

	table, err := Realign(series, shift, calendar)
	if err != nil {
		t.Fatalf("realign: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("got %d rows, want 4", table.Len())
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		if !row.Window.Label.Time.Equal(calendar[i]) {
			t.Fatalf("row %d labeled %v, want %v", i, row.Window.Label.Time, calendar[i])
		}
		if got, _ := row.Value(ColumnForecast).Float64(); got != series.Points[i].Value {
			t.Fatalf("row %d value changed: %v", i, got)
		}
		if got, _ := row.Value(ColumnLower).Float64(); got != series.Points[i].Lower {
			t.Fatalf("row %d lower changed: %v", i, got)
		}
		if got, _ := row.Value(ColumnUpper).Float64(); got != series.Points[i].Upper {
			t.Fatalf("row %d upper changed: %v", i, got)
		}
	}
}

func TestRealignMeansPerReportingWindow(t *testing.T) {
	series := fixtureSeries(6) // values 1..6
	calendar := []time.Time{monday, monday.AddDate(0, 0, 7)}

	table, err := Realign(series, 24*time.Hour, calendar)
	if err != nil {
		t.Fatalf("realign: %v", err)
	}
	if got, _ := table.Row(0).Value(ColumnForecast).Float64(); math.Abs(got-2) > 1e-12 {
		t.Fatalf("first window mean = %v, want 2", got)
	}
	if got, _ := table.Row(1).Value(ColumnForecast).Float64(); math.Abs(got-5) > 1e-12 {
		t.Fatalf("second window mean = %v, want 5", got)
	}
}

func TestRealignRejectsEmptySeries(t *testing.T) {
	if _, err := Realign(&Series{Step: shift}, 24*time.Hour, nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("got %v, want ErrEmptySeries", err)
	}
}
