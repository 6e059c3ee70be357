package timeseries

import (
	"errors"
	"testing"
	"time"
)

func weekWindow(end time.Time) Window {
	return Window{Start: end.AddDate(0, 0, -6), End: end.AddDate(0, 0, 1), Label: TimeLabel(end)}
}

func TestTableJoinOnWindowLabels(t *testing.T) {
	week1 := time.Date(2022, 8, 7, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)

	left, err := NewTable([]string{"actual"}, []Row{
		NewRow(weekWindow(week1), map[string]Value{"actual": Num(9)}),
		NewRow(weekWindow(week2), map[string]Value{"actual": Num(8)}),
	})
	if err != nil {
		t.Fatalf("left table: %v", err)
	}
	right, err := NewTable([]string{"good_packs"}, []Row{
		NewRow(weekWindow(week1), map[string]Value{"good_packs": Num(1000)}),
	})
	if err != nil {
		t.Fatalf("right table: %v", err)
	}

	joined, err := left.Join(right)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := joined.Columns(); len(got) != 2 || got[0] != "actual" || got[1] != "good_packs" {
		t.Fatalf("columns = %v", got)
	}
	if got, _ := joined.Row(0).Value("good_packs").Float64(); got != 1000 {
		t.Fatalf("joined value = %v, want 1000", got)
	}
	if joined.Row(1).Value("good_packs").IsDefined() {
		t.Fatal("unmatched window must carry undefined cells")
	}
}

func TestTableJoinRejectsColumnCollision(t *testing.T) {
	w := weekWindow(time.Date(2022, 8, 7, 0, 0, 0, 0, time.UTC))
	left, _ := NewTable([]string{"x"}, []Row{NewRow(w, map[string]Value{"x": Num(1)})})
	right, _ := NewTable([]string{"x"}, []Row{NewRow(w, map[string]Value{"x": Num(2)})})

	if _, err := left.Join(right); !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("got %v, want ErrDuplicateField", err)
	}
}

func TestTableRejectsDuplicateWindows(t *testing.T) {
	w := weekWindow(time.Date(2022, 8, 7, 0, 0, 0, 0, time.UTC))
	_, err := NewTable([]string{"x"}, []Row{
		NewRow(w, map[string]Value{"x": Num(1)}),
		NewRow(w, map[string]Value{"x": Num(2)}),
	})
	if err == nil {
		t.Fatal("duplicate window keys must be rejected")
	}
}

func TestTableDropAndInsertColumns(t *testing.T) {
	w := weekWindow(time.Date(2022, 8, 7, 0, 0, 0, 0, time.UTC))
	table, err := NewTable([]string{"actual", "deviation"}, []Row{
		NewRow(w, map[string]Value{"actual": Num(9), "deviation": Num(1)}),
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	dropped, err := table.DropColumn("deviation")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if dropped.HasColumn("deviation") {
		t.Fatal("column survived drop")
	}

	inserted, err := dropped.InsertConstant(0, "planned", Num(10))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := inserted.Columns(); got[0] != "planned" || got[1] != "actual" {
		t.Fatalf("columns = %v, want planned first", got)
	}
	if got, _ := inserted.Row(0).Value("planned").Float64(); got != 10 {
		t.Fatalf("planned = %v, want 10", got)
	}
}

func TestTableShiftTimeLabels(t *testing.T) {
	end := time.Date(2022, 8, 7, 0, 0, 0, 0, time.UTC)
	table, err := NewTable([]string{"x"}, []Row{
		NewRow(weekWindow(end), map[string]Value{"x": Num(1)}),
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	shifted, err := table.ShiftTimeLabels(-6 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	want := time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
	if !shifted.Row(0).Window.Label.Time.Equal(want) {
		t.Fatalf("label = %v, want %v", shifted.Row(0).Window.Label.Time, want)
	}
	// Values and the underlying window span are untouched.
	if got, _ := shifted.Row(0).Value("x").Float64(); got != 1 {
		t.Fatalf("value changed to %v", got)
	}
	if !shifted.Row(0).Window.Start.Equal(table.Row(0).Window.Start) {
		t.Fatal("window span moved with the label")
	}
}
