package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadParsesRecords(t *testing.T) {
	path := writeFile(t, ""+
		"id,timestamp,good_packs,reject_packs,recipe\n"+
		"1,2022-08-01 06:00:00,120,3,cheddar\n"+
		"2,2022-08-01 07:00:00,,2,\n")

	src, err := New(path, Columns{
		Timestamp: "timestamp",
		Numeric:   []string{"good_packs", "reject_packs"},
		Text:      []string{"recipe"},
	})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if !first.TS.Equal(time.Date(2022, 8, 1, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("first TS = %v", first.TS)
	}
	if first.Numeric["good_packs"] != 120 || first.Numeric["reject_packs"] != 3 {
		t.Fatalf("first numerics = %v", first.Numeric)
	}
	if first.Text["recipe"] != "cheddar" {
		t.Fatalf("first recipe = %q", first.Text["recipe"])
	}

	// Empty cells are missing fields, not zeros.
	second := records[1]
	if _, ok := second.Numeric["good_packs"]; ok {
		t.Fatal("empty numeric cell must stay absent")
	}
	if _, ok := second.Text["recipe"]; ok {
		t.Fatal("empty text cell must stay absent")
	}
	if second.Numeric["reject_packs"] != 2 {
		t.Fatalf("second reject_packs = %v", second.Numeric["reject_packs"])
	}
}

func TestLoadTriesLayoutsInOrder(t *testing.T) {
	path := writeFile(t, "ts,v\n2022-08-01,1\n2022-08-01T06:00:00Z,2\n")
	src, err := New(path, Columns{Timestamp: "ts", Numeric: []string{"v"}})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !records[0].TS.Equal(time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only TS = %v", records[0].TS)
	}
	if !records[1].TS.Equal(time.Date(2022, 8, 1, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("RFC3339 TS = %v", records[1].TS)
	}
}

func TestLoadReportsRowOnBadCell(t *testing.T) {
	path := writeFile(t, "ts,v\n2022-08-01 06:00:00,12\n2022-08-01 07:00:00,twelve\n")
	src, err := New(path, Columns{Timestamp: "ts", Numeric: []string{"v"}})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	_, err = src.Load(context.Background())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("error %q does not name the row", err)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeFile(t, "ts,v\n2022-08-01 06:00:00,12\n")
	src, err := New(path, Columns{Timestamp: "start_ts", Numeric: []string{"v"}})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err = src.Load(context.Background()); err == nil {
		t.Fatal("expected error for unknown timestamp column")
	}
}
