package timeseries

import "fmt"

// AsofJoin attaches to every record of the primary stream the most recent
// lookup record whose timestamp is not after it (no look-ahead). fields
// restricts which lookup fields are attached; nil attaches all of them.
//
// Both streams must be ascending by timestamp; the join is a single forward
// scan over both, so it stays linear in the combined length.
func AsofJoin(primary, lookup *Stream, fields []string) (*Stream, error) {
	if err := primary.checkAscending(); err != nil {
		return nil, err
	}
	if err := lookup.checkAscending(); err != nil {
		return nil, err
	}

	if fields == nil {
		for _, f := range lookup.Schema().Fields {
			fields = append(fields, f.Name)
		}
	}
	joined := make([]Field, 0, len(fields))
	for _, name := range fields {
		f, ok := lookup.Schema().Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in stream %q", ErrUnknownField, name, lookup.Name())
		}
		if _, clash := primary.Schema().Field(name); clash {
			return nil, fmt.Errorf("%w: %q exists in both streams", ErrDuplicateField, name)
		}
		// Joined fields never force record drops on the primary stream.
		f.Fill = FillNone
		joined = append(joined, f)
	}

	schema := Schema{
		Stream: primary.Name(),
		Fields: append(append([]Field(nil), primary.Schema().Fields...), joined...),
	}

	records := make([]Record, 0, primary.Len())
	j := -1
	for _, a := range primary.Records() {
		for j+1 < lookup.Len() && !lookup.At(j+1).TS.After(a.TS) {
			j++
		}
		out := cloneRecord(a)
		if j >= 0 {
			b := lookup.At(j)
			for _, f := range joined {
				switch f.Kind {
				case KindNumeric:
					if v, ok := b.Numeric[f.Name]; ok {
						if out.Numeric == nil {
							out.Numeric = make(map[string]float64, len(joined))
						}
						out.Numeric[f.Name] = v
					}
				case KindText:
					if v, ok := b.Text[f.Name]; ok {
						if out.Text == nil {
							out.Text = make(map[string]string, len(joined))
						}
						out.Text[f.Name] = v
					}
				}
			}
		}
		records = append(records, out)
	}

	return &Stream{schema: schema, records: records}, nil
}
