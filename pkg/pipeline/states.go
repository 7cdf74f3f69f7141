// pkg/pipeline/states.go
package pipeline

import (
	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// stateNames maps the dataset's two-letter state codes to full names
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut",
	"DE": "Delaware", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan",
	"MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota",
	"OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania",
	"RI": "Rhode Island", "SC": "South Carolina", "SD": "South Dakota",
	"TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

// ExpandStateNames adds a State_Name column with the full U.S. state name
// for dashboards that prefer display names over codes. Unrecognized or
// missing codes fall back to the original cell so no new nulls are
// introduced. The second return is false when there is no State column.
func ExpandStateNames(tbl *table.Table) (bool, error) {
	if !tbl.HasColumn("State") {
		return false, nil
	}

	err := tbl.AddColumn("State_Name", func(r int) table.Value {
		v, _ := tbl.Value(r, "State")
		if code, isStr := v.Str(); isStr {
			if full, ok := stateNames[code]; ok {
				return table.String(full)
			}
		}
		return v
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
