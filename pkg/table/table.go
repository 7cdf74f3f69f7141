// pkg/table/table.go
package table

import (
	"fmt"
)

// Table is an insertion-ordered rectangular collection of rows. Columns keep
// their declared order; rows keep the order they were appended in. Stages
// only ever remove rows, remove columns, fill cells, or append new columns.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty table with the given column names
func New(cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c)
		}
		index[c] = i
	}

	return &Table{
		cols:  append([]string(nil), cols...),
		index: index,
		rows:  make([][]Value, 0),
	}, nil
}

// AppendRow adds a row to the end of the table
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Columns returns the column names in declared order
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at the given row for the named column
func (t *Table) Value(row int, col string) (Value, error) {
	i, ok := t.index[col]
	if !ok {
		return Null(), fmt.Errorf("unknown column %q", col)
	}
	if row < 0 || row >= len(t.rows) {
		return Null(), fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	return t.rows[row][i], nil
}

// SetValue replaces the cell at the given row for the named column
func (t *Table) SetValue(row int, col string, v Value) error {
	i, ok := t.index[col]
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	t.rows[row][i] = v
	return nil
}

// DropColumns removes the named columns. Names not present are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if t.HasColumn(n) {
			drop[n] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	keep := make([]int, 0, len(t.cols))
	newCols := make([]string, 0, len(t.cols))
	for i, c := range t.cols {
		if !drop[c] {
			keep = append(keep, i)
			newCols = append(newCols, c)
		}
	}

	for r, row := range t.rows {
		newRow := make([]Value, len(keep))
		for j, i := range keep {
			newRow[j] = row[i]
		}
		t.rows[r] = newRow
	}

	t.cols = newCols
	t.index = make(map[string]int, len(newCols))
	for i, c := range newCols {
		t.index[c] = i
	}
}

// RenameColumn renames a column in place, keeping its position
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("unknown column %q", from)
	}
	if _, exists := t.index[to]; exists {
		return fmt.Errorf("column %q already exists", to)
	}
	t.cols[i] = to
	delete(t.index, from)
	t.index[to] = i
	return nil
}

// AddColumn appends a new column whose cells are produced by fn, called once
// per row in order
func (t *Table) AddColumn(name string, fn func(row int) Value) error {
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], fn(r))
	}
	return nil
}

// FilterRows keeps only the rows for which keep returns true, preserving
// order. Returns the number of rows removed.
func (t *Table) FilterRows(keep func(row int) bool) int {
	kept := t.rows[:0]
	for r := range t.rows {
		if keep(r) {
			kept = append(kept, t.rows[r])
		}
	}
	removed := len(t.rows) - len(kept)
	t.rows = kept
	return removed
}

// cellAt returns the cell at (row, column index) without bounds checks;
// internal callers resolve the index once per column
func (t *Table) cellAt(row, col int) Value {
	return t.rows[row][col]
}

// columnIndex resolves a column name to its position
func (t *Table) columnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}
