// pkg/impute/strategy.go
package impute

import (
	"errors"
	"fmt"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// ErrSkipped reports a strategy whose preconditions were not met. The
// caller falls through to general median imputation instead of failing.
var ErrSkipped = errors.New("imputation strategy skipped")

// Strategy fills nulls in a single column of a table. Apply returns the
// number of cells filled. A strategy that cannot run returns ErrSkipped
// (possibly wrapped); any other error is a programming fault.
type Strategy interface {
	Name() string
	Apply(tbl *table.Table, col string) (int, error)
}

// Rule binds a column to the strategy that fills it
type Rule struct {
	Column   string
	Strategy Strategy
}

// DefaultRules returns the targeted weather-imputation registry: wind speed
// takes its own median, precipitation assumes "no precipitation observed",
// and wind chill is predicted from wind speed, temperature and humidity.
func DefaultRules() []Rule {
	return []Rule{
		{Column: "Wind_Speed(mph)", Strategy: Median{}},
		{Column: "Precipitation(in)", Strategy: ZeroFill{}},
		{Column: "Wind_Chill(F)", Strategy: Regression{
			Features: []string{"Wind_Speed(mph)", "Temperature(F)", "Humidity(%)"},
		}},
	}
}

// Median fills nulls with the column's own median, which is robust to the
// outliers common in weather measurements.
type Median struct{}

// Name returns the strategy name
func (Median) Name() string { return "median" }

// Apply fills every null cell in the column with its median
func (Median) Apply(tbl *table.Table, col string) (int, error) {
	if !tbl.HasColumn(col) {
		return 0, fmt.Errorf("%w: column %q not present", ErrSkipped, col)
	}

	median, ok := tbl.Median(col)
	if !ok {
		return 0, fmt.Errorf("%w: column %q has no numeric values", ErrSkipped, col)
	}

	return fillNulls(tbl, col, table.Number(median))
}

// ZeroFill fills nulls with exactly 0.0. Used where a missing measurement
// means "nothing observed" rather than "sensor value unknown".
type ZeroFill struct{}

// Name returns the strategy name
func (ZeroFill) Name() string { return "zero_fill" }

// Apply fills every null cell in the column with 0.0
func (ZeroFill) Apply(tbl *table.Table, col string) (int, error) {
	if !tbl.HasColumn(col) {
		return 0, fmt.Errorf("%w: column %q not present", ErrSkipped, col)
	}

	return fillNulls(tbl, col, table.Number(0))
}

// fillNulls replaces every null cell in the column with v
func fillNulls(tbl *table.Table, col string, v table.Value) (int, error) {
	filled := 0
	for r := 0; r < tbl.NumRows(); r++ {
		cell, err := tbl.Value(r, col)
		if err != nil {
			return filled, err
		}
		if cell.IsNull() {
			if err := tbl.SetValue(r, col, v); err != nil {
				return filled, err
			}
			filled++
		}
	}
	return filled, nil
}

// FillNumericMedians is the catch-all pass: every numeric column that still
// contains nulls is filled with its own median. Returns filled counts per
// column for columns that were touched.
func FillNumericMedians(tbl *table.Table) (map[string]int, error) {
	filled := make(map[string]int)
	for _, col := range tbl.Columns() {
		if !tbl.IsNumeric(col) {
			continue
		}

		missing, err := tbl.MissingCount(col)
		if err != nil {
			return filled, err
		}
		if missing == 0 {
			continue
		}

		n, err := Median{}.Apply(tbl, col)
		if err != nil {
			return filled, err
		}
		filled[col] = n
	}
	return filled, nil
}
