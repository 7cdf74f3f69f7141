// pkg/impute/strategy_test.go
package impute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

func numericColumn(t *testing.T, name string, values []table.Value) *table.Table {
	t.Helper()

	tbl, err := table.New([]string{name})
	require.NoError(t, err)
	for _, v := range values {
		require.NoError(t, tbl.AppendRow([]table.Value{v}))
	}
	return tbl
}

func TestMedianFillsNulls(t *testing.T) {
	tbl := numericColumn(t, "Wind_Speed(mph)", []table.Value{
		table.Number(5), table.Null(), table.Number(15),
		table.Number(10), table.Null(),
	})

	filled, err := Median{}.Apply(tbl, "Wind_Speed(mph)")
	require.NoError(t, err)
	assert.Equal(t, 2, filled)

	for r := 0; r < tbl.NumRows(); r++ {
		v, _ := tbl.Value(r, "Wind_Speed(mph)")
		assert.False(t, v.IsNull())
	}

	v, _ := tbl.Value(1, "Wind_Speed(mph)")
	f, _ := v.Num()
	assert.Equal(t, 10.0, f)
}

func TestMedianSkipsMissingColumn(t *testing.T) {
	tbl := numericColumn(t, "other", []table.Value{table.Number(1)})

	_, err := Median{}.Apply(tbl, "Wind_Speed(mph)")
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestMedianSkipsAllNullColumn(t *testing.T) {
	tbl := numericColumn(t, "n", []table.Value{table.Null(), table.Null()})

	_, err := Median{}.Apply(tbl, "n")
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestZeroFillScenario(t *testing.T) {
	// Five rows with null precipitation all become exactly 0.0
	tbl := numericColumn(t, "Precipitation(in)", []table.Value{
		table.Null(), table.Null(), table.Null(), table.Null(), table.Null(),
	})

	filled, err := ZeroFill{}.Apply(tbl, "Precipitation(in)")
	require.NoError(t, err)
	assert.Equal(t, 5, filled)

	for r := 0; r < tbl.NumRows(); r++ {
		v, _ := tbl.Value(r, "Precipitation(in)")
		f, ok := v.Num()
		require.True(t, ok)
		assert.Equal(t, 0.0, f)
	}
}

func TestZeroFillLeavesKnownValues(t *testing.T) {
	tbl := numericColumn(t, "Precipitation(in)", []table.Value{
		table.Number(0.3), table.Null(),
	})

	filled, err := ZeroFill{}.Apply(tbl, "Precipitation(in)")
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	v, _ := tbl.Value(0, "Precipitation(in)")
	f, _ := v.Num()
	assert.Equal(t, 0.3, f)
}

func TestFillNumericMedians(t *testing.T) {
	tbl, err := table.New([]string{"num", "label"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]table.Value{table.Number(1), table.String("a")}))
	require.NoError(t, tbl.AppendRow([]table.Value{table.Null(), table.String("b")}))
	require.NoError(t, tbl.AppendRow([]table.Value{table.Number(3), table.Null()}))

	filled, err := FillNumericMedians(tbl)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"num": 1}, filled)

	v, _ := tbl.Value(1, "num")
	f, _ := v.Num()
	assert.Equal(t, 2.0, f)

	// Non-numeric columns are untouched
	v, _ = tbl.Value(2, "label")
	assert.True(t, v.IsNull())
}

func TestDefaultRulesOrder(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 3)
	assert.Equal(t, "Wind_Speed(mph)", rules[0].Column)
	assert.Equal(t, "median", rules[0].Strategy.Name())
	assert.Equal(t, "Precipitation(in)", rules[1].Column)
	assert.Equal(t, "zero_fill", rules[1].Strategy.Name())
	assert.Equal(t, "Wind_Chill(F)", rules[2].Column)
	assert.Equal(t, "regression", rules[2].Strategy.Name())
}
