// pkg/table/table_test.go
package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()

	tbl, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	rows := [][]Value{
		{Number(1), String("x"), Null()},
		{Number(2), String("y"), Number(10)},
		{Number(3), Null(), Number(20)},
	}
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := New([]string{"a", "b", "a"})
	assert.Error(t, err)
}

func TestAppendRowShapeMismatch(t *testing.T) {
	tbl, err := New([]string{"a", "b"})
	require.NoError(t, err)
	assert.Error(t, tbl.AppendRow([]Value{Number(1)}))
}

func TestDropColumns(t *testing.T) {
	tbl := newTestTable(t)

	tbl.DropColumns("b", "missing")
	assert.Equal(t, []string{"a", "c"}, tbl.Columns())
	assert.Equal(t, 3, tbl.NumRows())

	v, err := tbl.Value(1, "c")
	require.NoError(t, err)
	f, ok := v.Num()
	require.True(t, ok)
	assert.Equal(t, 10.0, f)

	_, err = tbl.Value(0, "b")
	assert.Error(t, err)
}

func TestRenameColumn(t *testing.T) {
	tbl := newTestTable(t)

	require.NoError(t, tbl.RenameColumn("a", "id"))
	assert.Equal(t, []string{"id", "b", "c"}, tbl.Columns())

	assert.Error(t, tbl.RenameColumn("missing", "x"))
	assert.Error(t, tbl.RenameColumn("b", "c"))
}

func TestAddColumn(t *testing.T) {
	tbl := newTestTable(t)

	err := tbl.AddColumn("double_a", func(r int) Value {
		v, _ := tbl.Value(r, "a")
		f, _ := v.Num()
		return Number(f * 2)
	})
	require.NoError(t, err)

	v, err := tbl.Value(2, "double_a")
	require.NoError(t, err)
	f, _ := v.Num()
	assert.Equal(t, 6.0, f)

	assert.Error(t, tbl.AddColumn("a", func(int) Value { return Null() }))
}

func TestFilterRowsPreservesOrder(t *testing.T) {
	tbl := newTestTable(t)

	removed := tbl.FilterRows(func(r int) bool {
		v, _ := tbl.Value(r, "a")
		f, _ := v.Num()
		return f != 2
	})
	assert.Equal(t, 1, removed)
	require.Equal(t, 2, tbl.NumRows())

	first, _ := tbl.Value(0, "a")
	second, _ := tbl.Value(1, "a")
	f1, _ := first.Num()
	f2, _ := second.Num()
	assert.Equal(t, 1.0, f1)
	assert.Equal(t, 3.0, f2)
}

func TestMissingRatio(t *testing.T) {
	tbl := newTestTable(t)

	ratio, err := tbl.MissingRatio("c")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, ratio, 1e-9)

	ratio, err = tbl.MissingRatio("a")
	require.NoError(t, err)
	assert.Zero(t, ratio)

	_, err = tbl.MissingRatio("missing")
	assert.Error(t, err)
}

func TestMedian(t *testing.T) {
	tbl, err := New([]string{"n"})
	require.NoError(t, err)
	for _, f := range []float64{5, 1, 3, 9, 7} {
		require.NoError(t, tbl.AppendRow([]Value{Number(f)}))
	}

	m, ok := tbl.Median("n")
	require.True(t, ok)
	assert.Equal(t, 5.0, m)

	// Even count: average the two middle values
	require.NoError(t, tbl.AppendRow([]Value{Number(11)}))
	m, ok = tbl.Median("n")
	require.True(t, ok)
	assert.Equal(t, 6.0, m)

	// Nulls are ignored, not treated as zero
	require.NoError(t, tbl.AppendRow([]Value{Null()}))
	m, ok = tbl.Median("n")
	require.True(t, ok)
	assert.Equal(t, 6.0, m)
}

func TestIsNumeric(t *testing.T) {
	tbl, err := New([]string{"num", "mixed", "allnull"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{Number(1), Number(1), Null()}))
	require.NoError(t, tbl.AppendRow([]Value{Null(), String("x"), Null()}))

	assert.True(t, tbl.IsNumeric("num"))
	assert.False(t, tbl.IsNumeric("mixed"))
	assert.False(t, tbl.IsNumeric("allnull"))
	assert.False(t, tbl.IsNumeric("missing"))
}
