// pkg/impute/regression.go
package impute

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// Regression fills nulls by fitting an ordinary least-squares linear model
// on rows where the column is known and predicting where it is missing.
// The model includes an intercept term, uses no regularization and no
// train/test split: it is fit and discarded within a single run.
type Regression struct {
	Features []string
}

// Name returns the strategy name
func (Regression) Name() string { return "regression" }

// Apply fits the model and fills predictable nulls. Preconditions: the
// target and all feature columns exist, and there are more training rows
// than coefficients. Target rows with a null feature are left for the
// general imputer.
func (s Regression) Apply(tbl *table.Table, col string) (int, error) {
	if !tbl.HasColumn(col) {
		return 0, fmt.Errorf("%w: column %q not present", ErrSkipped, col)
	}
	for _, f := range s.Features {
		if !tbl.HasColumn(f) {
			return 0, fmt.Errorf("%w: feature column %q not present", ErrSkipped, f)
		}
	}

	var (
		trainRows  []int
		targetRows []int
	)
	for r := 0; r < tbl.NumRows(); r++ {
		target, err := tbl.Value(r, col)
		if err != nil {
			return 0, err
		}

		featuresKnown := true
		for _, f := range s.Features {
			cell, err := tbl.Value(r, f)
			if err != nil {
				return 0, err
			}
			if _, isNum := cell.Num(); !isNum {
				featuresKnown = false
				break
			}
		}
		if !featuresKnown {
			continue
		}

		if _, isNum := target.Num(); isNum {
			trainRows = append(trainRows, r)
		} else if target.IsNull() {
			targetRows = append(targetRows, r)
		}
	}

	if len(targetRows) == 0 {
		return 0, nil
	}

	// Coefficients: one per feature plus the intercept
	p := len(s.Features) + 1
	if len(trainRows) < p {
		return 0, fmt.Errorf("%w: %d training rows for %d coefficients",
			ErrSkipped, len(trainRows), p)
	}

	x := mat.NewDense(len(trainRows), p, nil)
	y := mat.NewDense(len(trainRows), 1, nil)
	for i, r := range trainRows {
		x.Set(i, 0, 1)
		for j, f := range s.Features {
			cell, _ := tbl.Value(r, f)
			v, _ := cell.Num()
			x.Set(i, j+1, v)
		}
		cell, _ := tbl.Value(r, col)
		v, _ := cell.Num()
		y.Set(i, 0, v)
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		// Rank-deficient or ill-conditioned feature matrix
		return 0, fmt.Errorf("%w: least squares solve failed: %v", ErrSkipped, err)
	}

	filled := 0
	for _, r := range targetRows {
		pred := beta.At(0, 0)
		for j, f := range s.Features {
			cell, _ := tbl.Value(r, f)
			v, _ := cell.Num()
			pred += beta.At(j+1, 0) * v
		}
		if err := tbl.SetValue(r, col, table.Number(pred)); err != nil {
			return filled, err
		}
		filled++
	}

	return filled, nil
}
