// pkg/pipeline/stages_test.go
package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

func buildTable(t *testing.T, cols []string, rows [][]table.Value) *table.Table {
	t.Helper()

	tbl, err := table.New(cols)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	tbl := buildTable(t, []string{"ID", "v"}, [][]table.Value{
		{table.Number(1), table.String("first-1")},
		{table.Number(1), table.String("second-1")},
		{table.Number(2), table.String("first-2")},
		{table.Number(3), table.String("first-3")},
		{table.Number(3), table.String("second-3")},
		{table.Number(3), table.String("third-3")},
	})

	removed, err := Deduplicate(tbl, "ID")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	require.Equal(t, 3, tbl.NumRows())

	for r, want := range []string{"first-1", "first-2", "first-3"} {
		v, _ := tbl.Value(r, "v")
		s, _ := v.Str()
		assert.Equal(t, want, s)
	}
}

func TestDeduplicateMissingKeyIsStructural(t *testing.T) {
	tbl := buildTable(t, []string{"v"}, nil)

	_, err := Deduplicate(tbl, "ID")
	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, "ID", structErr.Column)
}

func TestDropHighMissingnessBound(t *testing.T) {
	// "mostly_missing" is 40% null, "sparse" 20%, "full" 0%
	tbl := buildTable(t, []string{"mostly_missing", "sparse", "full"}, [][]table.Value{
		{table.Null(), table.Number(1), table.Number(1)},
		{table.Null(), table.Null(), table.Number(2)},
		{table.Number(1), table.Number(3), table.Number(3)},
		{table.Null(), table.Number(4), table.Number(4)},
		{table.Number(2), table.Number(5), table.Number(5)},
	})

	dropped, err := DropHighMissingness(tbl, 0.30)
	require.NoError(t, err)
	assert.Equal(t, []string{"mostly_missing"}, dropped)

	// Every surviving column satisfies the bound at this point
	for _, col := range tbl.Columns() {
		ratio, err := tbl.MissingRatio(col)
		require.NoError(t, err)
		assert.LessOrEqual(t, ratio, 0.30)
	}
}

func TestDropNonAnalytical(t *testing.T) {
	tbl := buildTable(t, []string{"ID", "Description", "State"}, [][]table.Value{
		{table.String("A-1"), table.String("crash"), table.String("CA")},
	})

	dropped := DropNonAnalytical(tbl)
	assert.ElementsMatch(t, []string{"ID", "Description"}, dropped)
	assert.Equal(t, []string{"State"}, tbl.Columns())
}

func TestValidateTemporalDropsUnparseableRows(t *testing.T) {
	tbl := buildTable(t, []string{"Start_Time", "End_Time"}, [][]table.Value{
		{table.String("2021-06-01 08:00:00"), table.String("2021-06-01 08:30:00")},
		{table.String("not a timestamp"), table.String("2021-06-01 09:00:00")},
		{table.Null(), table.String("2021-06-01 10:00:00")},
		{table.String("2021-06-02 11:00:00"), table.String("2021-06-02 11:45:00")},
	})

	rec := NewSoftFailRecorder(zapNop())
	removed, err := ValidateTemporal(tbl, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, rec.Count("Start_Time"))
	assert.Zero(t, rec.Count("End_Time"))

	for r := 0; r < tbl.NumRows(); r++ {
		for _, col := range []string{"Start_Time", "End_Time"} {
			v, _ := tbl.Value(r, col)
			_, isTime := v.TimeVal()
			assert.True(t, isTime)
		}
	}
}

func TestValidateGeographicCoercesAndRenames(t *testing.T) {
	tbl := buildTable(t, []string{"Start_Lat", "Start_Lng"}, [][]table.Value{
		{table.Number(39.86), table.Number(-84.05)},
		{table.String("oops"), table.Number(-80.0)},
		{table.String("40.1"), table.String("-83.2")},
		{table.Null(), table.Number(-81.0)},
	})

	rec := NewSoftFailRecorder(zapNop())
	removed, err := ValidateGeographic(tbl, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, rec.Count("Start_Lat"))

	assert.True(t, tbl.HasColumn("Latitude"))
	assert.True(t, tbl.HasColumn("Longitude"))
	assert.False(t, tbl.HasColumn("Start_Lat"))

	v, _ := tbl.Value(1, "Latitude")
	f, ok := v.Num()
	require.True(t, ok)
	assert.Equal(t, 40.1, f)
}

func TestFilterSeverityIdempotent(t *testing.T) {
	tbl := buildTable(t, []string{"Severity"}, [][]table.Value{
		{table.Number(1)},
		{table.Number(5)},
		{table.Number(2)},
		{table.String("high")},
		{table.Null()},
		{table.Number(4)},
	})

	removed, err := FilterSeverity(tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 3, tbl.NumRows())

	// Second application changes nothing
	removed, err = FilterSeverity(tbl)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 3, tbl.NumRows())
}

func TestDropLowMissingnessRows(t *testing.T) {
	// "sparse" has 1/50 = 2% missing (inside the band); "gappy" has
	// 20% missing (left for imputation)
	cols := []string{"sparse", "gappy"}
	var rows [][]table.Value
	for i := 0; i < 50; i++ {
		sparse := table.Value(table.Number(float64(i)))
		if i == 7 {
			sparse = table.Null()
		}
		gappy := table.Value(table.Number(float64(i)))
		if i%5 == 0 {
			gappy = table.Null()
		}
		rows = append(rows, []table.Value{sparse, gappy})
	}
	tbl := buildTable(t, cols, rows)

	removed, lowCols, err := DropLowMissingnessRows(tbl, 0.03)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"sparse"}, lowCols)

	missing, err := tbl.MissingCount("sparse")
	require.NoError(t, err)
	assert.Zero(t, missing)

	// The gappy column keeps its nulls for the imputers
	missing, err = tbl.MissingCount("gappy")
	require.NoError(t, err)
	assert.Equal(t, 10, missing)
}

func TestBuildTemporalFeatures(t *testing.T) {
	// Saturday 2021-06-05 23:30 and Monday 2021-06-07 09:15
	sat := time.Date(2021, 6, 5, 23, 30, 0, 0, time.UTC)
	mon := time.Date(2021, 6, 7, 9, 15, 0, 0, time.UTC)

	tbl := buildTable(t, []string{"Start_Time", "End_Time"}, [][]table.Value{
		{table.Time(sat), table.Time(sat.Add(90 * time.Minute))},
		{table.Time(mon), table.Time(mon.Add(30*time.Minute + 30*time.Second))},
	})

	built, err := BuildTemporalFeatures(tbl)
	require.NoError(t, err)
	require.True(t, built)

	for _, col := range []string{"Duration_Minutes", "Year", "Hour", "DayOfWeek", "Month", "IsWeekend", "Weekday"} {
		assert.True(t, tbl.HasColumn(col), "missing derived column %s", col)
	}

	get := func(r int, col string) float64 {
		v, _ := tbl.Value(r, col)
		f, ok := v.Num()
		require.True(t, ok)
		return f
	}

	assert.InDelta(t, 90, get(0, "Duration_Minutes"), 1e-9)
	assert.InDelta(t, 30.5, get(1, "Duration_Minutes"), 1e-9)
	assert.Equal(t, 2021.0, get(0, "Year"))
	assert.Equal(t, 23.0, get(0, "Hour"))
	assert.Equal(t, 6.0, get(0, "Month"))

	// Saturday is index 5 under 0=Monday..6=Sunday
	assert.Equal(t, 5.0, get(0, "DayOfWeek"))
	assert.Equal(t, 1.0, get(0, "IsWeekend"))
	assert.Equal(t, 0.0, get(1, "DayOfWeek"))
	assert.Equal(t, 0.0, get(1, "IsWeekend"))

	v, _ := tbl.Value(0, "Weekday")
	name, _ := v.Str()
	assert.Equal(t, "Saturday", name)
}

func TestBuildTemporalFeaturesSkipsWithoutSources(t *testing.T) {
	tbl := buildTable(t, []string{"Severity"}, [][]table.Value{{table.Number(2)}})

	built, err := BuildTemporalFeatures(tbl)
	require.NoError(t, err)
	assert.False(t, built)
	assert.False(t, tbl.HasColumn("Duration_Minutes"))
}

func TestWeekendClassificationAcrossWeek(t *testing.T) {
	// One row per weekday starting Monday 2021-06-07
	base := time.Date(2021, 6, 7, 12, 0, 0, 0, time.UTC)
	var rows [][]table.Value
	for i := 0; i < 7; i++ {
		start := base.AddDate(0, 0, i)
		rows = append(rows, []table.Value{table.Time(start), table.Time(start.Add(time.Hour))})
	}
	tbl := buildTable(t, []string{"Start_Time", "End_Time"}, rows)

	built, err := BuildTemporalFeatures(tbl)
	require.NoError(t, err)
	require.True(t, built)

	for r := 0; r < 7; r++ {
		dow, _ := tbl.Value(r, "DayOfWeek")
		flag, _ := tbl.Value(r, "IsWeekend")
		d, _ := dow.Num()
		f, _ := flag.Num()

		assert.Equal(t, float64(r), d)
		if d == 5 || d == 6 {
			assert.Equal(t, 1.0, f)
		} else {
			assert.Equal(t, 0.0, f)
		}
	}
}

func TestEncodeCategoricalFeatures(t *testing.T) {
	tbl := buildTable(t, []string{"Traffic_Signal", "Junction", "Sunrise_Sunset", "State"}, [][]table.Value{
		{table.Bool(true), table.Bool(false), table.String("Day"), table.String("OH")},
		{table.Bool(false), table.Bool(true), table.String("Night"), table.String("CA")},
		{table.Bool(true), table.Null(), table.Null(), table.String("TX")},
	})

	encoded, err := EncodeCategoricalFeatures(tbl)
	require.NoError(t, err)
	// Traffic_Signal is named; Junction is caught as a bool column
	assert.Equal(t, 2, encoded)

	v, _ := tbl.Value(0, "Traffic_Signal")
	f, ok := v.Num()
	require.True(t, ok)
	assert.Equal(t, 1.0, f)

	v, _ = tbl.Value(1, "Junction")
	f, _ = v.Num()
	assert.Equal(t, 1.0, f)

	// Null indicators stay null for Final Cleanup
	v, _ = tbl.Value(2, "Junction")
	assert.True(t, v.IsNull())

	// IsDay derives from the day/night indicator; null counts as not-day
	require.True(t, tbl.HasColumn("IsDay"))
	day, _ := tbl.Value(0, "IsDay")
	night, _ := tbl.Value(1, "IsDay")
	unknown, _ := tbl.Value(2, "IsDay")
	dayF, _ := day.Num()
	nightF, _ := night.Num()
	unknownF, _ := unknown.Num()
	assert.Equal(t, 1.0, dayF)
	assert.Equal(t, 0.0, nightF)
	assert.Equal(t, 0.0, unknownF)

	// String columns are untouched
	v, _ = tbl.Value(0, "State")
	s, _ := v.Str()
	assert.Equal(t, "OH", s)
}

func TestEncodeCategoricalWithoutDayNightColumn(t *testing.T) {
	tbl := buildTable(t, []string{"Stop"}, [][]table.Value{{table.Bool(true)}})

	_, err := EncodeCategoricalFeatures(tbl)
	require.NoError(t, err)
	assert.False(t, tbl.HasColumn("IsDay"))
}

func TestDropRedundant(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := buildTable(t, []string{"Start_Time", "End_Time", "Sunrise_Sunset", "Hour"}, [][]table.Value{
		{table.Time(ts), table.Time(ts), table.String("Day"), table.Number(0)},
	})

	dropped := DropRedundant(tbl)
	assert.ElementsMatch(t, []string{"Start_Time", "End_Time", "Sunrise_Sunset"}, dropped)
	assert.Equal(t, []string{"Hour"}, tbl.Columns())
}

func TestFinalCleanupNoNullPostcondition(t *testing.T) {
	tbl := buildTable(t, []string{"a", "b"}, [][]table.Value{
		{table.Number(1), table.Number(2)},
		{table.Null(), table.Number(3)},
		{table.Number(4), table.Null()},
		{table.Number(5), table.Number(6)},
	})

	dropped := FinalCleanup(tbl)
	assert.Equal(t, 2, dropped)
	require.Equal(t, 2, tbl.NumRows())

	for r := 0; r < tbl.NumRows(); r++ {
		for _, col := range tbl.Columns() {
			v, _ := tbl.Value(r, col)
			assert.False(t, v.IsNull())
		}
	}
}

func TestExpandStateNames(t *testing.T) {
	tbl := buildTable(t, []string{"State"}, [][]table.Value{
		{table.String("OH")},
		{table.String("ZZ")},
	})

	built, err := ExpandStateNames(tbl)
	require.NoError(t, err)
	require.True(t, built)

	v, _ := tbl.Value(0, "State_Name")
	s, _ := v.Str()
	assert.Equal(t, "Ohio", s)

	// Unknown codes fall back to the original cell
	v, _ = tbl.Value(1, "State_Name")
	s, _ = v.Str()
	assert.Equal(t, "ZZ", s)
}
