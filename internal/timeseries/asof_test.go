package timeseries

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestAsofJoinBackwardAlignment(t *testing.T) {
	primary := mustNormalize(t, []Record{
		numRecord(0, map[string]float64{"x": 5}),
		numRecord(10, map[string]float64{"x": 7}),
	}, Schema{Stream: "a", Fields: []Field{{Name: "x", Kind: KindNumeric}}})
	lookup := mustNormalize(t, []Record{
		numRecord(-5, map[string]float64{"y": 1}),
		numRecord(5, map[string]float64{"y": 2}),
	}, Schema{Stream: "b", Fields: []Field{{Name: "y", Kind: KindNumeric}}})

	joined, err := AsofJoin(primary, lookup, []string{"y"})
	if err != nil {
		t.Fatalf("asof join: %v", err)
	}
	if joined.Len() != 2 {
		t.Fatalf("got %d records, want 2", joined.Len())
	}
	if got := joined.At(0).Numeric["y"]; got != 1 {
		t.Fatalf("t=0 joined y=%v, want 1", got)
	}
	if got := joined.At(1).Numeric["y"]; got != 2 {
		t.Fatalf("t=10 joined y=%v, want 2", got)
	}
}

func TestAsofJoinNoPriorValueStaysUndefined(t *testing.T) {
	primary := mustNormalize(t, []Record{
		numRecord(0, map[string]float64{"x": 5}),
	}, Schema{Stream: "a", Fields: []Field{{Name: "x", Kind: KindNumeric}}})
	lookup := mustNormalize(t, []Record{
		numRecord(5, map[string]float64{"y": 2}),
	}, Schema{Stream: "b", Fields: []Field{{Name: "y", Kind: KindNumeric}}})

	joined, err := AsofJoin(primary, lookup, nil)
	if err != nil {
		t.Fatalf("asof join: %v", err)
	}
	if joined.At(0).HasField("y") {
		t.Fatal("lookup value leaked from the future")
	}
}

func TestAsofJoinMatchesNaiveReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var rawA, rawB []Record
	for i := 0; i < 200; i++ {
		rawA = append(rawA, numRecord(rng.Intn(5000), map[string]float64{"x": float64(i)}))
	}
	for i := 0; i < 120; i++ {
		rawB = append(rawB, numRecord(rng.Intn(5000), map[string]float64{"y": float64(i)}))
	}

	primary := mustNormalize(t, rawA, Schema{Stream: "a", Fields: []Field{{Name: "x", Kind: KindNumeric}}})
	lookup := mustNormalize(t, rawB, Schema{Stream: "b", Fields: []Field{{Name: "y", Kind: KindNumeric}}})

	joined, err := AsofJoin(primary, lookup, []string{"y"})
	if err != nil {
		t.Fatalf("asof join: %v", err)
	}

	for i := 0; i < primary.Len(); i++ {
		a := primary.At(i)
		var want float64
		found := false
		var bestTS time.Time
		for j := 0; j < lookup.Len(); j++ {
			b := lookup.At(j)
			if b.TS.After(a.TS) {
				continue
			}
			if !found || !b.TS.Before(bestTS) {
				want = b.Numeric["y"]
				bestTS = b.TS
				found = true
			}
		}
		got, ok := joined.At(i).Numeric["y"]
		if ok != found {
			t.Fatalf("record %d: joined=%v, reference=%v", i, ok, found)
		}
		if found && got != want {
			t.Fatalf("record %d: joined y=%v, reference y=%v", i, got, want)
		}
	}
}

func TestAsofJoinRejectsUnsortedInput(t *testing.T) {
	sorted := mustNormalize(t, []Record{
		numRecord(0, map[string]float64{"x": 1}),
	}, Schema{Stream: "a", Fields: []Field{{Name: "x", Kind: KindNumeric}}})

	unsorted := &Stream{
		schema: Schema{Stream: "b", Fields: []Field{{Name: "y", Kind: KindNumeric}}},
		records: []Record{
			numRecord(10, map[string]float64{"y": 1}),
			numRecord(0, map[string]float64{"y": 2}),
		},
	}

	_, err := AsofJoin(sorted, unsorted, nil)
	var unsortedErr *UnsortedInputError
	if !errors.As(err, &unsortedErr) {
		t.Fatalf("got %v, want UnsortedInputError", err)
	}
	if unsortedErr.Stream != "b" || unsortedErr.Index != 1 {
		t.Fatalf("error lacks context: %+v", unsortedErr)
	}
}

func TestAsofJoinRejectsFieldCollision(t *testing.T) {
	a := mustNormalize(t, []Record{
		numRecord(0, map[string]float64{"x": 1}),
	}, Schema{Stream: "a", Fields: []Field{{Name: "x", Kind: KindNumeric}}})
	b := mustNormalize(t, []Record{
		numRecord(0, map[string]float64{"x": 2}),
	}, Schema{Stream: "b", Fields: []Field{{Name: "x", Kind: KindNumeric}}})

	if _, err := AsofJoin(a, b, nil); !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("got %v, want ErrDuplicateField", err)
	}
}
