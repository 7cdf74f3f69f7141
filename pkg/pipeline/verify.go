// pkg/pipeline/verify.go
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// IntegrityIssue represents one violated invariant in the cleaned table
type IntegrityIssue struct {
	IssueType    string
	Description  string
	ColumnName   string
	AffectedRows int
}

// VerificationReport contains the results of a cleaned-table verification
type VerificationReport struct {
	VerificationTime time.Time
	RowCount         int
	ColumnCount      int
	Verified         bool
	Issues           []IntegrityIssue
	Duration         time.Duration
}

// Verifier checks the invariants the pipeline guarantees for its output:
// no residual nulls, severity restricted to the four known levels, numeric
// coordinates, and internally consistent derived features. It is a
// diagnostic tool; the pipeline does not depend on it.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify runs every invariant check and returns the collected issues
func (v *Verifier) Verify(tbl *table.Table) *VerificationReport {
	start := time.Now()
	report := &VerificationReport{
		VerificationTime: start,
		RowCount:         tbl.NumRows(),
		ColumnCount:      tbl.NumCols(),
	}

	report.Issues = append(report.Issues, v.checkNoNulls(tbl)...)
	report.Issues = append(report.Issues, v.checkSeverityDomain(tbl)...)
	report.Issues = append(report.Issues, v.checkCoordinates(tbl)...)
	report.Issues = append(report.Issues, v.checkWeekendFlag(tbl)...)

	report.Verified = len(report.Issues) == 0
	report.Duration = time.Since(start)

	if report.Verified {
		v.logger.Info("Cleaned table verified",
			zap.Int("rows", report.RowCount),
			zap.Int("columns", report.ColumnCount),
			zap.Duration("duration", report.Duration))
	} else {
		for _, issue := range report.Issues {
			v.logger.Warn("Integrity issue in cleaned table",
				zap.String("type", issue.IssueType),
				zap.String("column", issue.ColumnName),
				zap.String("description", issue.Description),
				zap.Int("affected_rows", issue.AffectedRows))
		}
	}

	return report
}

// checkNoNulls enforces the no-residual-null postcondition
func (v *Verifier) checkNoNulls(tbl *table.Table) []IntegrityIssue {
	var issues []IntegrityIssue
	for _, col := range tbl.Columns() {
		missing, err := tbl.MissingCount(col)
		if err != nil || missing == 0 {
			continue
		}
		issues = append(issues, IntegrityIssue{
			IssueType:    "residual_nulls",
			Description:  fmt.Sprintf("%d null values remain after final cleanup", missing),
			ColumnName:   col,
			AffectedRows: missing,
		})
	}
	return issues
}

// checkSeverityDomain enforces Severity in {1,2,3,4}
func (v *Verifier) checkSeverityDomain(tbl *table.Table) []IntegrityIssue {
	if !tbl.HasColumn("Severity") {
		return []IntegrityIssue{{
			IssueType:   "missing_column",
			Description: "cleaned table has no Severity column",
			ColumnName:  "Severity",
		}}
	}

	bad := 0
	for r := 0; r < tbl.NumRows(); r++ {
		cell, _ := tbl.Value(r, "Severity")
		f, isNum := cell.Num()
		if !isNum || (f != 1 && f != 2 && f != 3 && f != 4) {
			bad++
		}
	}
	if bad == 0 {
		return nil
	}
	return []IntegrityIssue{{
		IssueType:    "severity_domain",
		Description:  fmt.Sprintf("%d rows hold a severity outside {1,2,3,4}", bad),
		ColumnName:   "Severity",
		AffectedRows: bad,
	}}
}

// checkCoordinates enforces numeric latitude/longitude coverage
func (v *Verifier) checkCoordinates(tbl *table.Table) []IntegrityIssue {
	var issues []IntegrityIssue
	for _, col := range []string{"Latitude", "Longitude"} {
		if !tbl.HasColumn(col) {
			issues = append(issues, IntegrityIssue{
				IssueType:   "missing_column",
				Description: fmt.Sprintf("cleaned table has no %s column", col),
				ColumnName:  col,
			})
			continue
		}

		bad := 0
		for r := 0; r < tbl.NumRows(); r++ {
			cell, _ := tbl.Value(r, col)
			if _, isNum := cell.Num(); !isNum {
				bad++
			}
		}
		if bad > 0 {
			issues = append(issues, IntegrityIssue{
				IssueType:    "non_numeric_coordinate",
				Description:  fmt.Sprintf("%d rows hold a non-numeric %s", bad, col),
				ColumnName:   col,
				AffectedRows: bad,
			})
		}
	}
	return issues
}

// checkWeekendFlag enforces IsWeekend == 1 exactly when DayOfWeek is
// Saturday (5) or Sunday (6)
func (v *Verifier) checkWeekendFlag(tbl *table.Table) []IntegrityIssue {
	if !tbl.HasColumn("IsWeekend") || !tbl.HasColumn("DayOfWeek") {
		return nil
	}

	bad := 0
	for r := 0; r < tbl.NumRows(); r++ {
		dow, _ := tbl.Value(r, "DayOfWeek")
		flag, _ := tbl.Value(r, "IsWeekend")
		d, dOK := dow.Num()
		f, fOK := flag.Num()
		if !dOK || !fOK {
			bad++
			continue
		}

		isWeekend := d == 5 || d == 6
		if (isWeekend && f != 1) || (!isWeekend && f != 0) {
			bad++
		}
	}
	if bad == 0 {
		return nil
	}
	return []IntegrityIssue{{
		IssueType:    "weekend_flag",
		Description:  fmt.Sprintf("%d rows have an IsWeekend flag inconsistent with DayOfWeek", bad),
		ColumnName:   "IsWeekend",
		AffectedRows: bad,
	}}
}
