package timeseries

import (
	"fmt"
	"time"
)

// Row is one window of an aggregate table with its reduced values.
type Row struct {
	Window Window
	cells  map[string]Value
}

// Value returns the cell for the named column; missing cells are undefined.
func (r Row) Value(column string) Value {
	return r.cells[column]
}

// Table is an ordered sequence of windowed rows. No two rows share a window
// label; columns keep their construction order and derived columns are
// appended at the end.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable builds a table from rows and an ordered column list. Cell maps
// are copied, so callers keep ownership of their inputs.
func NewTable(columns []string, rows []Row) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("%w: empty column name", ErrUnknownField)
		}
		if seen[c] {
			return nil, ErrDuplicateField
		}
		seen[c] = true
	}
	keys := make(map[string]bool, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		key := r.Window.Label.Key()
		if keys[key] {
			return nil, fmt.Errorf("timeseries: duplicate window %s", r.Window.Label)
		}
		keys[key] = true
		cells := make(map[string]Value, len(columns))
		for _, c := range columns {
			cells[c] = r.cells[c]
		}
		out = append(out, Row{Window: r.Window, cells: cells})
	}
	return &Table{columns: append([]string(nil), columns...), rows: out}, nil
}

// NewRow pairs a window with its cells. Intended for table construction and
// test fixtures.
func NewRow(w Window, cells map[string]Value) Row {
	copied := make(map[string]Value, len(cells))
	for k, v := range cells {
		copied[k] = v
	}
	return Row{Window: w, cells: copied}
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the row at index i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Join left-joins another table on equal window labels: the receiver's rows
// and order are kept and the other side's columns are appended. Rows with no
// partner keep undefined cells for the appended columns.
func (t *Table) Join(other *Table) (*Table, error) {
	for _, c := range other.columns {
		if t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, c)
		}
	}
	byKey := make(map[string]Row, len(other.rows))
	for _, r := range other.rows {
		byKey[r.Window.Label.Key()] = r
	}

	columns := append(t.Columns(), other.columns...)
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		cells := make(map[string]Value, len(columns))
		for _, c := range t.columns {
			cells[c] = r.cells[c]
		}
		if match, ok := byKey[r.Window.Label.Key()]; ok {
			for _, c := range other.columns {
				cells[c] = match.cells[c]
			}
		}
		rows = append(rows, Row{Window: r.Window, cells: cells})
	}
	return &Table{columns: columns, rows: rows}, nil
}

// DropColumn returns a table without the named column.
func (t *Table) DropColumn(name string) (*Table, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	columns := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns {
		if c != name {
			columns = append(columns, c)
		}
	}
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		cells := make(map[string]Value, len(columns))
		for _, c := range columns {
			cells[c] = r.cells[c]
		}
		rows = append(rows, Row{Window: r.Window, cells: cells})
	}
	return &Table{columns: columns, rows: rows}, nil
}

// InsertConstant returns a table with a constant-valued column inserted at
// the given position.
func (t *Table) InsertConstant(pos int, name string, v Value) (*Table, error) {
	if t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	if pos < 0 || pos > len(t.columns) {
		return nil, fmt.Errorf("timeseries: column position %d out of range", pos)
	}
	columns := make([]string, 0, len(t.columns)+1)
	columns = append(columns, t.columns[:pos]...)
	columns = append(columns, name)
	columns = append(columns, t.columns[pos:]...)
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		cells := make(map[string]Value, len(columns))
		for _, c := range t.columns {
			cells[c] = r.cells[c]
		}
		cells[name] = v
		rows = append(rows, Row{Window: r.Window, cells: cells})
	}
	return &Table{columns: columns, rows: rows}, nil
}

// ShiftTimeLabels returns a table whose time labels are moved by d. Weekly
// reports use it to relabel week-end keyed rows onto the week start. All
// rows must carry time labels.
func (t *Table) ShiftTimeLabels(d time.Duration) (*Table, error) {
	rows := make([]Row, 0, len(t.rows))
	for i, r := range t.rows {
		if r.Window.Label.Kind != LabelTime {
			return nil, fmt.Errorf("timeseries: row %d has no time label", i)
		}
		w := r.Window
		w.Label = TimeLabel(w.Label.Time.Add(d))
		rows = append(rows, Row{Window: w, cells: r.cells})
	}
	return &Table{columns: t.Columns(), rows: rows}, nil
}
