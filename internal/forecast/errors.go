package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when an operation needs at least one forecast point.
	ErrEmptySeries = errors.New("forecast: empty series")
	// ErrInvalidOptions is returned when fit parameters are out of range.
	ErrInvalidOptions = errors.New("forecast: invalid options")
)

// ModelFitError reports a failed model fit: degenerate input or a diverged
// smoothing state. It is fatal to the forecast call; nothing is defaulted.
type ModelFitError struct {
	Reason string
	Cycles int
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("forecast: model fit failed: %s (full seasonal cycles: %d)", e.Reason, e.Cycles)
}

// AlignmentError reports a length mismatch between re-bucketed forecast
// windows and the supplied calendar index.
type AlignmentError struct {
	Want int
	Got  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("forecast: calendar has %d labels, forecast produced %d reporting windows", e.Want, e.Got)
}
