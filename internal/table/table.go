package table

import "fmt"

// Warning records a data row whose field count exceeds the header width.
// The row is kept whole; the extra fields are an unlabeled extension.
type Warning struct {
	Row  int // 0-based data row index
	Want int
	Got  int
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: expected %d fields, saw %d", w.Row, w.Want, w.Got)
}

// Table is a rectangular-ish set of string fields. A nil Columns slice means
// the table has no header row and columns are addressed by position.
type Table struct {
	Columns  []string
	Rows     [][]string
	Warnings []Warning
}

func (t *Table) HasHeader() bool {
	return t.Columns != nil
}

// Empty reports whether the table has neither columns nor rows.
func (t *Table) Empty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// Width is the number of columns: the header width if there is one,
// otherwise the widest row.
func (t *Table) Width() int {
	if t.HasHeader() {
		return len(t.Columns)
	}
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Field returns the value at (row, col). ok is false when the row is shorter
// than col, which is how missing trailing fields are surfaced.
func (t *Table) Field(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return "", false
	}
	return r[col], true
}

// Value looks a field up by column name.
func (t *Table) Value(row int, column string) (string, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return "", false
	}
	return t.Field(row, idx)
}

// DropColumns returns a copy of t without the named columns. Names that are
// not present are ignored. Removal is positional, so fields past the header
// width in overlong rows are kept.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[int]bool)
	for _, n := range names {
		if idx := t.ColumnIndex(n); idx >= 0 {
			drop[idx] = true
		}
	}

	out := &Table{
		Warnings: append([]Warning(nil), t.Warnings...),
	}
	if t.Columns != nil {
		out.Columns = make([]string, 0, len(t.Columns)-len(drop))
		for i, c := range t.Columns {
			if !drop[i] {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	out.Rows = make([][]string, len(t.Rows))
	for ri, r := range t.Rows {
		row := make([]string, 0, len(r))
		for i, v := range r {
			if !drop[i] {
				row = append(row, v)
			}
		}
		out.Rows[ri] = row
	}
	// warnings describe widths that shrank along with the header
	for i := range out.Warnings {
		out.Warnings[i].Want = len(out.Columns)
		out.Warnings[i].Got -= countBelow(drop, out.Warnings[i].Got)
	}
	return out
}

func countBelow(set map[int]bool, n int) int {
	c := 0
	for i := range set {
		if i < n {
			c++
		}
	}
	return c
}
