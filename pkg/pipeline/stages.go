// pkg/pipeline/stages.go
package pipeline

import (
	"fmt"
	"time"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// nonAnalyticalColumns carry no modeling signal and are dropped up front
var nonAnalyticalColumns = []string{
	"ID", "Source", "Description", "Street", "Country",
	"Zipcode", "Timezone", "Airport_Code", "Amenity",
}

// redundantColumns are superseded by derived features and dropped at the end
var redundantColumns = []string{
	"Start_Time", "End_Time", "Weather_Timestamp",
	"Civil_Twilight", "Nautical_Twilight",
	"Astronomical_Twilight", "Sunrise_Sunset",
}

// boolIndicatorColumns are road-feature flags encoded to 0/1
var boolIndicatorColumns = []string{
	"Roundabout", "Station", "Stop", "Traffic_Calming",
	"Traffic_Signal", "Turning_Loop",
}

// Deduplicate removes rows sharing an identity key with an earlier row,
// keeping the first occurrence in input order. Returns the number of rows
// removed.
func Deduplicate(tbl *table.Table, key string) (int, error) {
	if !tbl.HasColumn(key) {
		return 0, &StructuralError{Column: key}
	}

	seen := make(map[string]bool, tbl.NumRows())
	removed := tbl.FilterRows(func(r int) bool {
		v, _ := tbl.Value(r, key)
		k := v.Format()
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
	return removed, nil
}

// DropHighMissingness removes every column whose missing ratio exceeds the
// threshold, evaluated once against the current row count. Returns the
// names of the dropped columns.
func DropHighMissingness(tbl *table.Table, threshold float64) ([]string, error) {
	var drop []string
	for _, col := range tbl.Columns() {
		ratio, err := tbl.MissingRatio(col)
		if err != nil {
			return nil, err
		}
		if ratio > threshold {
			drop = append(drop, col)
		}
	}
	tbl.DropColumns(drop...)
	return drop, nil
}

// DropNonAnalytical removes columns irrelevant to modeling. Absent names
// are ignored. Returns the names actually dropped.
func DropNonAnalytical(tbl *table.Table) []string {
	var dropped []string
	for _, col := range nonAnalyticalColumns {
		if tbl.HasColumn(col) {
			dropped = append(dropped, col)
		}
	}
	tbl.DropColumns(dropped...)
	return dropped
}

// ValidateTemporal parses Start_Time and End_Time, coercing malformed
// cells to null, then drops rows where either timestamp is null. After
// this stage both columns are fully populated time values, so subtraction
// is well defined downstream. Returns the number of rows removed.
func ValidateTemporal(tbl *table.Table, rec *SoftFailRecorder) (int, error) {
	for _, col := range []string{"Start_Time", "End_Time"} {
		if !tbl.HasColumn(col) {
			return 0, &StructuralError{Column: col}
		}

		for r := 0; r < tbl.NumRows(); r++ {
			cell, err := tbl.Value(r, col)
			if err != nil {
				return 0, err
			}
			if cell.IsNull() {
				continue
			}

			parsed, ok := table.ParseTimestamp(cell)
			if !ok && rec != nil {
				rec.Record(col)
			}
			if err := tbl.SetValue(r, col, parsed); err != nil {
				return 0, err
			}
		}
	}

	removed := tbl.FilterRows(func(r int) bool {
		start, _ := tbl.Value(r, "Start_Time")
		end, _ := tbl.Value(r, "End_Time")
		return !start.IsNull() && !end.IsNull()
	})
	return removed, nil
}

// ValidateGeographic coerces the start coordinates to numeric, drops rows
// where either coordinate is null, and renames the columns to the
// canonical Latitude/Longitude schema. Value ranges are not checked.
// Returns the number of rows removed.
func ValidateGeographic(tbl *table.Table, rec *SoftFailRecorder) (int, error) {
	for _, col := range []string{"Start_Lat", "Start_Lng"} {
		if !tbl.HasColumn(col) {
			return 0, &StructuralError{Column: col}
		}

		for r := 0; r < tbl.NumRows(); r++ {
			cell, err := tbl.Value(r, col)
			if err != nil {
				return 0, err
			}
			if cell.IsNull() {
				continue
			}

			parsed, ok := table.ParseNumber(cell)
			if !ok && rec != nil {
				rec.Record(col)
			}
			if err := tbl.SetValue(r, col, parsed); err != nil {
				return 0, err
			}
		}
	}

	removed := tbl.FilterRows(func(r int) bool {
		lat, _ := tbl.Value(r, "Start_Lat")
		lng, _ := tbl.Value(r, "Start_Lng")
		return !lat.IsNull() && !lng.IsNull()
	})

	if err := tbl.RenameColumn("Start_Lat", "Latitude"); err != nil {
		return removed, err
	}
	if err := tbl.RenameColumn("Start_Lng", "Longitude"); err != nil {
		return removed, err
	}
	return removed, nil
}

// FilterSeverity restricts the table to the four known severity levels.
// Applying it twice yields the same row set as applying it once.
func FilterSeverity(tbl *table.Table) (int, error) {
	if !tbl.HasColumn("Severity") {
		return 0, &StructuralError{Column: "Severity"}
	}

	removed := tbl.FilterRows(func(r int) bool {
		v, _ := tbl.Value(r, "Severity")
		f, isNum := v.Num()
		if !isNum {
			return false
		}
		return f == 1 || f == 2 || f == 3 || f == 4
	})
	return removed, nil
}

// DropLowMissingnessRows drops the rows affected by very sparse gaps: for
// every column whose missing ratio is in (0, band], rows missing that
// column are removed outright rather than imputed. Columns above the band
// are left for the imputers. Returns rows removed and the columns that
// triggered the drop.
func DropLowMissingnessRows(tbl *table.Table, band float64) (int, []string, error) {
	var lowMissing []string
	for _, col := range tbl.Columns() {
		ratio, err := tbl.MissingRatio(col)
		if err != nil {
			return 0, nil, err
		}
		if ratio > 0 && ratio <= band {
			lowMissing = append(lowMissing, col)
		}
	}
	if len(lowMissing) == 0 {
		return 0, nil, nil
	}

	removed := tbl.FilterRows(func(r int) bool {
		for _, col := range lowMissing {
			v, _ := tbl.Value(r, col)
			if v.IsNull() {
				return false
			}
		}
		return true
	})
	return removed, lowMissing, nil
}

// BuildTemporalFeatures derives duration and calendar features from the
// validated timestamps. DayOfWeek uses 0=Monday..6=Sunday, so IsWeekend is
// DayOfWeek in {5, 6}. Weekday carries the English day name for dashboard
// grouping. The second return is false when the source columns are absent
// and the features were not produced.
func BuildTemporalFeatures(tbl *table.Table) (bool, error) {
	if !tbl.HasColumn("Start_Time") || !tbl.HasColumn("End_Time") {
		return false, nil
	}

	startOf := func(r int) (time.Time, bool) {
		v, _ := tbl.Value(r, "Start_Time")
		return v.TimeVal()
	}

	derive := []struct {
		name string
		fn   func(r int) table.Value
	}{
		{"Duration_Minutes", func(r int) table.Value {
			start, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			end, ok := func() (time.Time, bool) {
				v, _ := tbl.Value(r, "End_Time")
				return v.TimeVal()
			}()
			if !ok {
				return table.Null()
			}
			return table.Number(end.Sub(start).Minutes())
		}},
		{"Year", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			return table.Number(float64(t.Year()))
		}},
		{"Hour", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			return table.Number(float64(t.Hour()))
		}},
		{"DayOfWeek", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			return table.Number(float64(mondayIndexed(t.Weekday())))
		}},
		{"Month", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			return table.Number(float64(int(t.Month())))
		}},
		{"IsWeekend", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			d := mondayIndexed(t.Weekday())
			if d == 5 || d == 6 {
				return table.Number(1)
			}
			return table.Number(0)
		}},
		{"Weekday", func(r int) table.Value {
			t, ok := startOf(r)
			if !ok {
				return table.Null()
			}
			return table.String(t.Weekday().String())
		}},
	}

	for _, d := range derive {
		if err := tbl.AddColumn(d.name, d.fn); err != nil {
			return false, fmt.Errorf("failed to derive %s: %w", d.name, err)
		}
	}
	return true, nil
}

// mondayIndexed converts Go's Sunday-first weekday to 0=Monday..6=Sunday
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// EncodeCategoricalFeatures converts boolean road-feature indicators to
// 0/1 and derives IsDay from the day/night indicator when that column
// exists. Null indicator cells stay null for Final Cleanup to handle.
// Returns the number of columns encoded.
func EncodeCategoricalFeatures(tbl *table.Table) (int, error) {
	encode := make([]string, 0, len(boolIndicatorColumns))
	named := make(map[string]bool, len(boolIndicatorColumns))
	for _, col := range boolIndicatorColumns {
		named[col] = true
		if tbl.HasColumn(col) {
			encode = append(encode, col)
		}
	}
	// Any remaining purely boolean column gets the same treatment
	for _, col := range tbl.Columns() {
		if !named[col] && isBoolColumn(tbl, col) {
			encode = append(encode, col)
		}
	}

	for _, col := range encode {
		for r := 0; r < tbl.NumRows(); r++ {
			cell, err := tbl.Value(r, col)
			if err != nil {
				return 0, err
			}
			b, isBool := cell.BoolVal()
			if !isBool {
				continue
			}
			v := table.Number(0)
			if b {
				v = table.Number(1)
			}
			if err := tbl.SetValue(r, col, v); err != nil {
				return 0, err
			}
		}
	}

	if tbl.HasColumn("Sunrise_Sunset") {
		err := tbl.AddColumn("IsDay", func(r int) table.Value {
			v, _ := tbl.Value(r, "Sunrise_Sunset")
			if s, isStr := v.Str(); isStr && s == "Day" {
				return table.Number(1)
			}
			return table.Number(0)
		})
		if err != nil {
			return len(encode), err
		}
	}

	return len(encode), nil
}

// isBoolColumn reports whether every non-null cell is a bool and at least
// one bool is present
func isBoolColumn(tbl *table.Table, col string) bool {
	sawBool := false
	for r := 0; r < tbl.NumRows(); r++ {
		v, _ := tbl.Value(r, col)
		switch v.Kind() {
		case table.KindBool:
			sawBool = true
		case table.KindNull:
		default:
			return false
		}
	}
	return sawBool
}

// DropRedundant removes source columns superseded by derived features.
// Returns the names actually dropped.
func DropRedundant(tbl *table.Table) []string {
	var dropped []string
	for _, col := range redundantColumns {
		if tbl.HasColumn(col) {
			dropped = append(dropped, col)
		}
	}
	tbl.DropColumns(dropped...)
	return dropped
}

// FinalCleanup unconditionally drops any row with a remaining null in any
// column. This is the correctness backstop for the no-null postcondition;
// a nonzero return means an earlier stage's contract did not hold for
// those rows.
func FinalCleanup(tbl *table.Table) int {
	cols := tbl.Columns()
	return tbl.FilterRows(func(r int) bool {
		for _, col := range cols {
			v, _ := tbl.Value(r, col)
			if v.IsNull() {
				return false
			}
		}
		return true
	})
}
