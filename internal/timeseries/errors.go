package timeseries

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStream is returned when an operation needs at least one record.
	ErrEmptyStream = errors.New("timeseries: empty stream")
	// ErrUnknownField is returned when a field name is not part of a schema or table.
	ErrUnknownField = errors.New("timeseries: unknown field")
	// ErrDuplicateField is returned when an operation would produce two fields with the same name.
	ErrDuplicateField = errors.New("timeseries: duplicate field")
	// ErrInvalidWindowSpec is returned when a window specification is incomplete or contradictory.
	ErrInvalidWindowSpec = errors.New("timeseries: invalid window spec")
)

// SchemaError reports a required field that is absent from every record of a
// stream, so neither forward-fill nor drop filtering can recover it.
type SchemaError struct {
	Stream string
	Field  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("timeseries: stream %q: required field %q absent from every record", e.Stream, e.Field)
}

// UnsortedInputError reports a stream whose timestamps decrease at Index.
// The normalizer guarantees sorted output, so hitting this means a caller
// bypassed it.
type UnsortedInputError struct {
	Stream string
	Index  int
}

func (e *UnsortedInputError) Error() string {
	return fmt.Sprintf("timeseries: stream %q not ascending by timestamp at record %d", e.Stream, e.Index)
}
