package timeseries

import (
	"fmt"
	"time"
)

// LabelKind discriminates the label variants a window row can carry.
type LabelKind int

const (
	// LabelTime labels a window by an instant (window start or week end).
	LabelTime LabelKind = iota
	// LabelHour labels a pooled hour-of-day group (0..23).
	LabelHour
	// LabelWeekday labels a pooled weekday group.
	LabelWeekday
	// LabelText labels a categorical group such as a recipe or error code.
	LabelText
)

// Label identifies one output row of a resampling. Rows of one table never
// share a label.
type Label struct {
	Kind    LabelKind
	Time    time.Time
	Hour    int
	Weekday time.Weekday
	Text    string
}

// TimeLabel builds an instant label.
func TimeLabel(t time.Time) Label { return Label{Kind: LabelTime, Time: t} }

// HourLabel builds an hour-of-day label.
func HourLabel(h int) Label { return Label{Kind: LabelHour, Hour: h} }

// WeekdayLabel builds a weekday label.
func WeekdayLabel(d time.Weekday) Label { return Label{Kind: LabelWeekday, Weekday: d} }

// TextLabel builds a categorical label.
func TextLabel(s string) Label { return Label{Kind: LabelText, Text: s} }

// Key returns a string usable as a uniqueness/join key for the label.
func (l Label) Key() string {
	switch l.Kind {
	case LabelTime:
		return "t:" + l.Time.Format("2006-01-02T15:04:05.000000000")
	case LabelHour:
		return fmt.Sprintf("h:%d", l.Hour)
	case LabelWeekday:
		return fmt.Sprintf("d:%d", int(l.Weekday))
	default:
		return "s:" + l.Text
	}
}

// String renders the label for reports and diagnostics.
func (l Label) String() string {
	switch l.Kind {
	case LabelTime:
		return l.Time.Format("2006-01-02 15:04:05")
	case LabelHour:
		return fmt.Sprintf("%d", l.Hour)
	case LabelWeekday:
		return l.Weekday.String()
	default:
		return l.Text
	}
}

// Window is a half-open interval [Start, End) with a row label. Pooled
// grouping windows (hour-of-day, weekday, categorical) span no single
// interval; they carry zero Start/End and are identified by label alone.
type Window struct {
	Start time.Time
	End   time.Time
	Label Label
}
