package forecast

import (
	"fmt"
	"time"

	"packline-analytics/internal/timeseries"
)

// Point is one forecast step: a central estimate with a two-sided band.
// Lower <= Value <= Upper holds for every point the model emits.
type Point struct {
	At    time.Time
	Value float64
	Lower float64
	Upper float64
}

// Series is a forecast at the fitting granularity: instants strictly
// increase by exactly Step, continuing the fitted grid without gap or
// overlap.
type Series struct {
	Step   time.Duration
	Points []Point
}

// Options parameterize a projection.
type Options struct {
	// Field picks the table column to fit. Optional when the table has
	// exactly one column.
	Field string
	// SeasonalPeriod is the number of grid steps per recurring cycle.
	SeasonalPeriod int
	// Smoothing controls how fast the seasonal pattern may change from
	// cycle to cycle, in (0, 1]. High values track recent cycles closely
	// and risk overfitting.
	Smoothing float64
	// Horizon is the number of future grid steps to project.
	Horizon int
	// Confidence is the two-sided band level; zero means 0.90.
	Confidence float64
	// Exclude removes grid positions from fitting, e.g. non-business days.
	// Excluded windows are absent from the grid, not zero-valued.
	Exclude func(windowStart time.Time) bool
}

// Project fits a seasonal model to a fixed-granularity aggregate table and
// projects Horizon future windows. Fit failures are fatal and reported,
// never defaulted.
func Project(table *timeseries.Table, opts Options) (*Series, error) {
	if opts.SeasonalPeriod < 2 {
		return nil, fmt.Errorf("%w: seasonal period %d", ErrInvalidOptions, opts.SeasonalPeriod)
	}
	if opts.Smoothing <= 0 || opts.Smoothing > 1 {
		return nil, fmt.Errorf("%w: smoothing %v outside (0, 1]", ErrInvalidOptions, opts.Smoothing)
	}
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon %d", ErrInvalidOptions, opts.Horizon)
	}
	confidence := opts.Confidence
	if confidence == 0 {
		confidence = 0.90
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("%w: confidence %v outside (0, 1)", ErrInvalidOptions, opts.Confidence)
	}

	field := opts.Field
	if field == "" {
		columns := table.Columns()
		if len(columns) != 1 {
			return nil, fmt.Errorf("%w: table has %d columns, name the field to fit", ErrInvalidOptions, len(columns))
		}
		field = columns[0]
	} else if !table.HasColumn(field) {
		return nil, fmt.Errorf("%w: table has no column %q", ErrInvalidOptions, field)
	}

	step, values, lastAt, err := fittingGrid(table, field, opts.Exclude)
	if err != nil {
		return nil, err
	}

	model, err := fitSeasonal(values, opts.SeasonalPeriod, opts.Smoothing)
	if err != nil {
		return nil, err
	}
	lo, hi, err := model.residualBand(confidence)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, opts.Horizon)
	for k := 1; k <= opts.Horizon; k++ {
		value := model.predict(k)
		points = append(points, Point{
			At:    lastAt.Add(time.Duration(k) * step),
			Value: value,
			Lower: value + lo,
			Upper: value + hi,
		})
	}
	return &Series{Step: step, Points: points}, nil
}

// fittingGrid extracts the ordered, exclusion-filtered grid from a
// fixed-granularity table. It verifies the rows form one contiguous
// equal-width grid so look-ahead and step drift cannot creep in.
func fittingGrid(table *timeseries.Table, field string, exclude func(time.Time) bool) (time.Duration, []timeseries.Value, time.Time, error) {
	if table.Len() == 0 {
		return 0, nil, time.Time{}, &ModelFitError{Reason: "empty input table"}
	}

	first := table.Row(0).Window
	if first.Label.Kind != timeseries.LabelTime {
		return 0, nil, time.Time{}, fmt.Errorf("%w: table rows are not time-windowed", ErrInvalidOptions)
	}
	step := first.End.Sub(first.Start)
	if step <= 0 {
		return 0, nil, time.Time{}, fmt.Errorf("%w: rows carry no fixed window width", ErrInvalidOptions)
	}

	var values []timeseries.Value
	var lastAt time.Time
	for i := 0; i < table.Len(); i++ {
		w := table.Row(i).Window
		if w.End.Sub(w.Start) != step {
			return 0, nil, time.Time{}, fmt.Errorf("%w: window %d width differs from grid step", ErrInvalidOptions, i)
		}
		if want := first.Start.Add(time.Duration(i) * step); !w.Start.Equal(want) {
			return 0, nil, time.Time{}, fmt.Errorf("%w: window %d breaks the fixed grid", ErrInvalidOptions, i)
		}
		if exclude != nil && exclude(w.Start) {
			continue
		}
		values = append(values, table.Row(i).Value(field))
		lastAt = w.Start
	}
	if len(values) == 0 {
		return 0, nil, time.Time{}, &ModelFitError{Reason: "every grid position is excluded"}
	}
	return step, values, lastAt, nil
}
