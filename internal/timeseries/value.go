package timeseries

import "strconv"

// Value is a numeric cell that may be undefined. Reducers and derivations
// produce undefined instead of NaN or a silent zero; callers decide whether
// to drop or report such cells.
type Value struct {
	f       float64
	defined bool
}

// Num returns a defined value.
func Num(f float64) Value {
	return Value{f: f, defined: true}
}

// Undefined returns the undefined marker.
func Undefined() Value {
	return Value{}
}

// IsDefined reports whether the value carries a number.
func (v Value) IsDefined() bool {
	return v.defined
}

// Float64 returns the number and whether it is defined.
func (v Value) Float64() (float64, bool) {
	return v.f, v.defined
}

// String renders the value for diagnostics and plain-text sinks.
func (v Value) String() string {
	if !v.defined {
		return ""
	}
	return strconv.FormatFloat(v.f, 'g', -1, 64)
}
