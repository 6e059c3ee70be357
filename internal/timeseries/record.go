package timeseries

import "time"

// FieldKind is the declared type of a schema field.
type FieldKind int

const (
	// KindNumeric marks a floating-point field.
	KindNumeric FieldKind = iota
	// KindText marks a categorical field such as a recipe name or error code.
	KindText
)

// FillPolicy decides what happens to records missing a field during
// normalization.
type FillPolicy int

const (
	// FillNone leaves missing values missing.
	FillNone FillPolicy = iota
	// FillForward replaces a missing value with the nearest preceding known
	// value; records still missing after the scan (no preceding value exists)
	// are dropped.
	FillForward
	// FillDrop removes records that do not carry the field.
	FillDrop
)

// Field declares one named column of a stream.
type Field struct {
	Name string
	Kind FieldKind
	Fill FillPolicy
}

// Schema declares the field set of a stream. Raw fields not listed here,
// such as a machine identifier, are discarded during normalization.
type Schema struct {
	Stream string
	Fields []Field
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record is a single timestamped observation. A field absent from both maps
// is missing; normalization and reducers treat it as undefined, never zero.
type Record struct {
	TS      time.Time
	Numeric map[string]float64
	Text    map[string]string
}

// HasField reports whether the record carries the named value.
func (r Record) HasField(name string) bool {
	if _, ok := r.Numeric[name]; ok {
		return true
	}
	_, ok := r.Text[name]
	return ok
}

// Stream is an ordered sequence of records sharing one schema. It is built
// by Normalize and immutable afterwards; every record's timestamp is
// non-decreasing.
type Stream struct {
	schema  Schema
	records []Record
}

// Name returns the stream name declared by the schema.
func (s *Stream) Name() string { return s.schema.Stream }

// Schema returns the declared schema.
func (s *Stream) Schema() Schema { return s.schema }

// Len returns the number of records.
func (s *Stream) Len() int { return len(s.records) }

// At returns the record at index i.
func (s *Stream) At(i int) Record { return s.records[i] }

// Records returns the ordered records. The slice is shared for efficiency;
// callers must not mutate it.
func (s *Stream) Records() []Record { return s.records }

// checkAscending verifies the non-decreasing timestamp invariant.
func (s *Stream) checkAscending() error {
	for i := 1; i < len(s.records); i++ {
		if s.records[i].TS.Before(s.records[i-1].TS) {
			return &UnsortedInputError{Stream: s.Name(), Index: i}
		}
	}
	return nil
}

func cloneRecord(r Record) Record {
	out := Record{TS: r.TS}
	if len(r.Numeric) > 0 {
		out.Numeric = make(map[string]float64, len(r.Numeric))
		for k, v := range r.Numeric {
			out.Numeric[k] = v
		}
	}
	if len(r.Text) > 0 {
		out.Text = make(map[string]string, len(r.Text))
		for k, v := range r.Text {
			out.Text[k] = v
		}
	}
	return out
}
