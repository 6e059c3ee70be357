package timeseries

import (
	"fmt"
	"time"
)

// Reducer is the aggregation applied to one field inside a window.
type Reducer int

const (
	// ReduceSum adds all defined values; an empty window is undefined.
	ReduceSum Reducer = iota
	// ReduceMean averages all defined values; an empty window is undefined.
	ReduceMean
	// ReduceCount counts defined values; an empty window yields 0.
	ReduceCount
)

// Reduction maps one stream field to an output column. As overrides the
// output column name; it defaults to Field.
type Reduction struct {
	Field string
	Op    Reducer
	As    string
}

func (r Reduction) column() string {
	if r.As != "" {
		return r.As
	}
	return r.Field
}

// WindowSpec selects how records are bucketed. Exactly the types below
// implement it.
type WindowSpec interface {
	windowSpec()
}

// FixedWindows buckets records into equal-width intervals
// [Origin + k*Width, Origin + (k+1)*Width). A zero Origin anchors the grid
// on the first observed timestamp floored to the calendar unit that fits
// Width; callers needing a different anchor must set Origin explicitly.
type FixedWindows struct {
	Width  time.Duration
	Origin time.Time
}

// HourOfDayWindows pools records by hour of day regardless of date. The
// output always has 24 rows, labeled 0..23.
type HourOfDayWindows struct{}

// WeekdayWindows pools records by weekday regardless of week. The output
// always has 7 rows, Monday first.
type WeekdayWindows struct{}

// CalendarWeekWindows buckets records into 7-day windows labeled by the
// week-end date: the window for label W covers the days W-6 .. W inclusive.
// WeekEnd picks the anchor weekday; the zero value anchors on Sunday.
type CalendarWeekWindows struct {
	WeekEnd time.Weekday
}

// GroupByField pools records by the value of a categorical field. Output
// rows are ordered by first appearance; records missing the field do not
// contribute to any group.
type GroupByField struct {
	Field string
}

func (FixedWindows) windowSpec()        {}
func (HourOfDayWindows) windowSpec()    {}
func (WeekdayWindows) windowSpec()      {}
func (CalendarWeekWindows) windowSpec() {}
func (GroupByField) windowSpec()        {}

// Resample groups a stream into windows and reduces every window with the
// declared reductions. Each reduction runs over the defined values of its
// field only; sum and mean over an empty set surface as undefined, count as
// zero.
func Resample(s *Stream, spec WindowSpec, reductions []Reduction) (*Table, error) {
	if len(reductions) == 0 {
		return nil, fmt.Errorf("%w: no reductions", ErrInvalidWindowSpec)
	}
	for _, red := range reductions {
		f, ok := s.Schema().Field(red.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q in stream %q", ErrUnknownField, red.Field, s.Name())
		}
		if f.Kind == KindText && red.Op != ReduceCount {
			return nil, fmt.Errorf("%w: field %q is categorical, only count applies", ErrInvalidWindowSpec, red.Field)
		}
	}

	switch w := spec.(type) {
	case FixedWindows:
		return resampleFixed(s, w, reductions)
	case HourOfDayWindows:
		return resampleByLabel(s, hourDomain(), func(r Record) Label {
			return HourLabel(r.TS.Hour())
		}, reductions)
	case WeekdayWindows:
		return resampleByLabel(s, weekdayDomain(), func(r Record) Label {
			return WeekdayLabel(r.TS.Weekday())
		}, reductions)
	case CalendarWeekWindows:
		return resampleWeeks(s, w, reductions)
	case GroupByField:
		return resampleGroups(s, w, reductions)
	default:
		return nil, fmt.Errorf("%w: unsupported spec %T", ErrInvalidWindowSpec, spec)
	}
}

func resampleFixed(s *Stream, spec FixedWindows, reductions []Reduction) (*Table, error) {
	if spec.Width <= 0 {
		return nil, fmt.Errorf("%w: non-positive width", ErrInvalidWindowSpec)
	}
	columns := reductionColumns(reductions)
	if s.Len() == 0 {
		return NewTable(columns, nil)
	}

	origin := spec.Origin
	if origin.IsZero() {
		origin = defaultOrigin(s.At(0).TS, spec.Width)
	}

	bucketOf := func(ts time.Time) int64 {
		d := ts.Sub(origin)
		k := int64(d / spec.Width)
		if d < 0 && d%spec.Width != 0 {
			k--
		}
		return k
	}

	buckets := make(map[int64][]Record)
	kmin, kmax := bucketOf(s.At(0).TS), bucketOf(s.At(0).TS)
	for _, r := range s.Records() {
		k := bucketOf(r.TS)
		if k < kmin {
			kmin = k
		}
		if k > kmax {
			kmax = k
		}
		buckets[k] = append(buckets[k], r)
	}

	rows := make([]Row, 0, kmax-kmin+1)
	for k := kmin; k <= kmax; k++ {
		start := origin.Add(time.Duration(k) * spec.Width)
		w := Window{Start: start, End: start.Add(spec.Width), Label: TimeLabel(start)}
		rows = append(rows, reduceWindow(w, buckets[k], reductions))
	}
	return NewTable(columns, rows)
}

// defaultOrigin floors the first timestamp to the start of its day, then
// advances in whole widths so sub-daily grids stay aligned to the clock.
func defaultOrigin(first time.Time, width time.Duration) time.Time {
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	if width >= 24*time.Hour {
		return day
	}
	return day.Add(first.Sub(day) / width * width)
}

func resampleByLabel(s *Stream, domain []Label, labelOf func(Record) Label, reductions []Reduction) (*Table, error) {
	groups := make(map[string][]Record)
	for _, r := range s.Records() {
		key := labelOf(r).Key()
		groups[key] = append(groups[key], r)
	}
	rows := make([]Row, 0, len(domain))
	for _, l := range domain {
		w := Window{Label: l}
		rows = append(rows, reduceWindow(w, groups[l.Key()], reductions))
	}
	return NewTable(reductionColumns(reductions), rows)
}

func hourDomain() []Label {
	domain := make([]Label, 0, 24)
	for h := 0; h < 24; h++ {
		domain = append(domain, HourLabel(h))
	}
	return domain
}

func weekdayDomain() []Label {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	domain := make([]Label, 0, len(order))
	for _, d := range order {
		domain = append(domain, WeekdayLabel(d))
	}
	return domain
}

func resampleWeeks(s *Stream, spec CalendarWeekWindows, reductions []Reduction) (*Table, error) {
	columns := reductionColumns(reductions)
	if s.Len() == 0 {
		return NewTable(columns, nil)
	}

	weekEndOf := func(ts time.Time) time.Time {
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		offset := (int(spec.WeekEnd) - int(day.Weekday()) + 7) % 7
		return day.AddDate(0, 0, offset)
	}

	buckets := make(map[string][]Record)
	for _, r := range s.Records() {
		key := weekEndOf(r.TS).Format("2006-01-02")
		buckets[key] = append(buckets[key], r)
	}

	first := weekEndOf(s.At(0).TS)
	last := weekEndOf(s.At(s.Len()-1).TS)
	var rows []Row
	for end := first; !end.After(last); end = end.AddDate(0, 0, 7) {
		w := Window{
			Start: end.AddDate(0, 0, -6),
			End:   end.AddDate(0, 0, 1),
			Label: TimeLabel(end),
		}
		rows = append(rows, reduceWindow(w, buckets[end.Format("2006-01-02")], reductions))
	}
	return NewTable(columns, rows)
}

func resampleGroups(s *Stream, spec GroupByField, reductions []Reduction) (*Table, error) {
	f, ok := s.Schema().Field(spec.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q in stream %q", ErrUnknownField, spec.Field, s.Name())
	}
	if f.Kind != KindText {
		return nil, fmt.Errorf("%w: group field %q is not categorical", ErrInvalidWindowSpec, spec.Field)
	}

	var order []string
	groups := make(map[string][]Record)
	for _, r := range s.Records() {
		v, ok := r.Text[spec.Field]
		if !ok {
			continue
		}
		if _, seen := groups[v]; !seen {
			order = append(order, v)
		}
		groups[v] = append(groups[v], r)
	}

	rows := make([]Row, 0, len(order))
	for _, v := range order {
		w := Window{Label: TextLabel(v)}
		rows = append(rows, reduceWindow(w, groups[v], reductions))
	}
	return NewTable(reductionColumns(reductions), rows)
}

func reductionColumns(reductions []Reduction) []string {
	columns := make([]string, 0, len(reductions))
	for _, red := range reductions {
		columns = append(columns, red.column())
	}
	return columns
}

func reduceWindow(w Window, records []Record, reductions []Reduction) Row {
	cells := make(map[string]Value, len(reductions))
	for _, red := range reductions {
		cells[red.column()] = reduceField(records, red)
	}
	return Row{Window: w, cells: cells}
}

func reduceField(records []Record, red Reduction) Value {
	switch red.Op {
	case ReduceCount:
		n := 0
		for _, r := range records {
			if r.HasField(red.Field) {
				n++
			}
		}
		return Num(float64(n))
	case ReduceSum, ReduceMean:
		sum := 0.0
		n := 0
		for _, r := range records {
			if v, ok := r.Numeric[red.Field]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return Undefined()
		}
		if red.Op == ReduceMean {
			return Num(sum / float64(n))
		}
		return Num(sum)
	default:
		return Undefined()
	}
}
