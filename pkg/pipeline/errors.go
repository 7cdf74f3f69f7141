// pkg/pipeline/errors.go
package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrorCategory classifies failures observed during a pipeline run
type ErrorCategory int

const (
	// ErrorCategoryParse marks a malformed cell that was coerced to null
	// and left for a row filter to handle
	ErrorCategoryParse ErrorCategory = iota
	// ErrorCategoryPrecondition marks a skipped specialized step whose
	// inputs were not available
	ErrorCategoryPrecondition
	// ErrorCategoryStructural marks a required column missing entirely;
	// always fatal
	ErrorCategoryStructural
	// ErrorCategoryIO marks a source or sink failure; always fatal
	ErrorCategoryIO
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryParse:
		return "Parse"
	case ErrorCategoryPrecondition:
		return "Precondition"
	case ErrorCategoryStructural:
		return "Structural"
	case ErrorCategoryIO:
		return "IO"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// StructuralError reports a required column that is absent from the input.
// Every downstream stage assumes the column's presence, so the run must stop.
type StructuralError struct {
	Column string
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	return fmt.Sprintf("required column %q is missing from the input table", e.Column)
}

// requiredColumns must exist before any stage mutates the table
var requiredColumns = []string{
	"ID",
	"Severity",
	"Start_Time",
	"End_Time",
	"Start_Lat",
	"Start_Lng",
}

// validateStructure checks every required column and aggregates all
// absences so the caller sees the complete list at once
func validateStructure(tbl columnSet) error {
	var err error
	for _, col := range requiredColumns {
		if !tbl.HasColumn(col) {
			err = multierr.Append(err, &StructuralError{Column: col})
		}
	}
	return err
}

// columnSet is the slice of table behavior structural validation needs
type columnSet interface {
	HasColumn(name string) bool
}

// SoftFailRecorder counts cells coerced to null during validation so a run
// can report how much malformed input it absorbed. Parse failures are never
// fatal; this exists for observability only.
type SoftFailRecorder struct {
	logger *zap.Logger
	counts map[string]int
	mu     sync.Mutex
}

// NewSoftFailRecorder creates a recorder backed by the given logger
func NewSoftFailRecorder(logger *zap.Logger) *SoftFailRecorder {
	return &SoftFailRecorder{
		logger: logger,
		counts: make(map[string]int),
	}
}

// Record notes a single coerced cell in the named column
func (r *SoftFailRecorder) Record(column string) {
	r.mu.Lock()
	r.counts[column]++
	r.mu.Unlock()
}

// Count returns the number of coercions recorded for the named column
func (r *SoftFailRecorder) Count(column string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[column]
}

// Total returns the number of coercions recorded across all columns
func (r *SoftFailRecorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, c := range r.counts {
		total += c
	}
	return total
}

// LogSummary emits one log line per column that absorbed parse failures
func (r *SoftFailRecorder) LogSummary() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.counts) == 0 {
		return
	}

	columns := make([]string, 0, len(r.counts))
	for col := range r.counts {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		r.logger.Warn("Coerced malformed values to null",
			zap.String("column", col),
			zap.Int("count", r.counts[col]),
			zap.String("category", ErrorCategoryParse.String()))
	}
}
