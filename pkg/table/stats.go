// pkg/table/stats.go
package table

import (
	"fmt"
	"sort"
)

// MissingCount returns the number of null cells in the named column
func (t *Table) MissingCount(col string) (int, error) {
	i, ok := t.columnIndex(col)
	if !ok {
		return 0, fmt.Errorf("unknown column %q", col)
	}

	count := 0
	for r := range t.rows {
		if t.cellAt(r, i).IsNull() {
			count++
		}
	}
	return count, nil
}

// MissingRatio returns the fraction of rows holding no value in the named
// column. An empty table has ratio 0.
func (t *Table) MissingRatio(col string) (float64, error) {
	if len(t.rows) == 0 {
		if !t.HasColumn(col) {
			return 0, fmt.Errorf("unknown column %q", col)
		}
		return 0, nil
	}

	missing, err := t.MissingCount(col)
	if err != nil {
		return 0, err
	}
	return float64(missing) / float64(len(t.rows)), nil
}

// IsNumeric reports whether the named column is a numeric measurement:
// at least one cell is a number and every non-null cell is a number.
func (t *Table) IsNumeric(col string) bool {
	i, ok := t.columnIndex(col)
	if !ok {
		return false
	}

	sawNumber := false
	for r := range t.rows {
		v := t.cellAt(r, i)
		switch v.Kind() {
		case KindNumber:
			sawNumber = true
		case KindNull:
		default:
			return false
		}
	}
	return sawNumber
}

// Median returns the median of the non-null numeric cells in the named
// column. The second return is false when the column holds no numbers.
func (t *Table) Median(col string) (float64, bool) {
	i, ok := t.columnIndex(col)
	if !ok {
		return 0, false
	}

	vals := make([]float64, 0, len(t.rows))
	for r := range t.rows {
		if f, isNum := t.cellAt(r, i).Num(); isNum {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}

	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}
