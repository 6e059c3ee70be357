package timeseries

import (
	"errors"
	"sort"
)

// Normalize turns an unordered batch of raw records into a canonical stream:
// records are stable-sorted by timestamp, restricted to the schema's fields,
// forward-filled and filtered per each field's fill policy.
//
// Forward-fill runs before drop filtering, so a record whose missing field
// has any preceding known value is filled and kept; only the leading records
// before the first known value are dropped.
func Normalize(raw []Record, schema Schema) (*Stream, error) {
	if schema.Stream == "" {
		return nil, errors.New("timeseries: schema needs a stream name")
	}
	if len(schema.Fields) == 0 {
		return nil, errors.New("timeseries: schema needs at least one field")
	}
	seen := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Name == "" {
			return nil, errors.New("timeseries: schema field without a name")
		}
		if seen[f.Name] {
			return nil, ErrDuplicateField
		}
		seen[f.Name] = true
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		records = append(records, projectRecord(r, schema))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TS.Before(records[j].TS)
	})

	// A required field no record carries can never be recovered.
	for _, f := range schema.Fields {
		if f.Fill == FillNone {
			continue
		}
		if !anyRecordHas(records, f.Name) {
			return nil, &SchemaError{Stream: schema.Stream, Field: f.Name}
		}
	}

	for _, f := range schema.Fields {
		if f.Fill == FillForward {
			forwardFill(records, f)
		}
	}

	kept := records[:0]
	for _, r := range records {
		if missingRequired(r, schema) {
			continue
		}
		kept = append(kept, r)
	}

	return &Stream{schema: schema, records: kept}, nil
}

// projectRecord copies a raw record keeping only declared fields of the
// declared kind.
func projectRecord(r Record, schema Schema) Record {
	out := Record{TS: r.TS}
	for _, f := range schema.Fields {
		switch f.Kind {
		case KindNumeric:
			if v, ok := r.Numeric[f.Name]; ok {
				if out.Numeric == nil {
					out.Numeric = make(map[string]float64, len(schema.Fields))
				}
				out.Numeric[f.Name] = v
			}
		case KindText:
			if v, ok := r.Text[f.Name]; ok {
				if out.Text == nil {
					out.Text = make(map[string]string, len(schema.Fields))
				}
				out.Text[f.Name] = v
			}
		}
	}
	return out
}

func anyRecordHas(records []Record, name string) bool {
	for _, r := range records {
		if r.HasField(name) {
			return true
		}
	}
	return false
}

func forwardFill(records []Record, f Field) {
	switch f.Kind {
	case KindNumeric:
		var last float64
		have := false
		for i := range records {
			if v, ok := records[i].Numeric[f.Name]; ok {
				last, have = v, true
				continue
			}
			if have {
				if records[i].Numeric == nil {
					records[i].Numeric = make(map[string]float64, 1)
				}
				records[i].Numeric[f.Name] = last
			}
		}
	case KindText:
		var last string
		have := false
		for i := range records {
			if v, ok := records[i].Text[f.Name]; ok {
				last, have = v, true
				continue
			}
			if have {
				if records[i].Text == nil {
					records[i].Text = make(map[string]string, 1)
				}
				records[i].Text[f.Name] = last
			}
		}
	}
}

// missingRequired reports whether the record still lacks a field whose
// policy removes incomplete records.
func missingRequired(r Record, schema Schema) bool {
	for _, f := range schema.Fields {
		if f.Fill == FillNone {
			continue
		}
		if !r.HasField(f.Name) {
			return true
		}
	}
	return false
}
