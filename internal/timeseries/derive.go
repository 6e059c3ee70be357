package timeseries

import "fmt"

// DeriveOp is the operation of a metric derivation.
type DeriveOp int

const (
	// OpRatio divides Left by Right. The result is undefined when either
	// operand is undefined or the denominator is zero; it never raises and
	// never substitutes zero.
	OpRatio DeriveOp = iota
	// OpDiff subtracts Right from Left; undefined if either operand is.
	OpDiff
	// OpAbsDiff is the absolute value of OpDiff.
	OpAbsDiff
)

// Derivation declares a secondary metric computed from two existing fields.
type Derivation struct {
	Name  string
	Op    DeriveOp
	Left  string
	Right string
}

// DeriveMetric appends a derived column to an aggregate table. Existing
// columns keep their order; the new column goes last. The input table is
// not modified.
func DeriveMetric(t *Table, d Derivation) (*Table, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: derivation needs a name", ErrUnknownField)
	}
	if t.HasColumn(d.Name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateField, d.Name)
	}
	if !t.HasColumn(d.Left) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, d.Left)
	}
	if !t.HasColumn(d.Right) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, d.Right)
	}

	columns := append(t.Columns(), d.Name)
	rows := make([]Row, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		cells := make(map[string]Value, len(columns))
		for _, c := range t.columns {
			cells[c] = r.cells[c]
		}
		cells[d.Name] = applyDerivation(d.Op, r.Value(d.Left), r.Value(d.Right))
		rows = append(rows, Row{Window: r.Window, cells: cells})
	}
	return &Table{columns: columns, rows: rows}, nil
}

// DeriveField appends a record-level derived field to a stream, for metrics
// that must be computed per observation before any windowing, such as the
// deviation between programmed and measured cycle rate.
func DeriveField(s *Stream, d Derivation) (*Stream, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: derivation needs a name", ErrUnknownField)
	}
	if _, ok := s.Schema().Field(d.Name); ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateField, d.Name)
	}
	for _, operand := range []string{d.Left, d.Right} {
		f, ok := s.Schema().Field(operand)
		if !ok {
			return nil, fmt.Errorf("%w: %q in stream %q", ErrUnknownField, operand, s.Name())
		}
		if f.Kind != KindNumeric {
			return nil, fmt.Errorf("timeseries: field %q is not numeric", operand)
		}
	}

	schema := Schema{
		Stream: s.Name(),
		Fields: append(append([]Field(nil), s.Schema().Fields...), Field{Name: d.Name, Kind: KindNumeric}),
	}
	records := make([]Record, 0, s.Len())
	for _, r := range s.Records() {
		out := cloneRecord(r)
		left, lok := r.Numeric[d.Left]
		right, rok := r.Numeric[d.Right]
		v := applyDerivation(d.Op, numValue(left, lok), numValue(right, rok))
		if f, ok := v.Float64(); ok {
			if out.Numeric == nil {
				out.Numeric = make(map[string]float64, 1)
			}
			out.Numeric[d.Name] = f
		}
		records = append(records, out)
	}
	return &Stream{schema: schema, records: records}, nil
}

func numValue(f float64, ok bool) Value {
	if !ok {
		return Undefined()
	}
	return Num(f)
}

func applyDerivation(op DeriveOp, left, right Value) Value {
	l, lok := left.Float64()
	r, rok := right.Float64()
	if !lok || !rok {
		return Undefined()
	}
	switch op {
	case OpRatio:
		if r == 0 {
			return Undefined()
		}
		return Num(l / r)
	case OpDiff:
		return Num(l - r)
	case OpAbsDiff:
		d := l - r
		if d < 0 {
			d = -d
		}
		return Num(d)
	default:
		return Undefined()
	}
}
