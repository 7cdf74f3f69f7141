// pkg/pipeline/report.go
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// StageResult records the shape change a single stage produced
type StageResult struct {
	Name        string
	RowsBefore  int
	RowsAfter   int
	ColsBefore  int
	ColsAfter   int
	CellsFilled int
	Skipped     bool // precondition not met, stage fell through
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// RowsDropped returns the number of rows the stage removed
func (r StageResult) RowsDropped() int {
	return r.RowsBefore - r.RowsAfter
}

// ColsDropped returns the number of columns the stage removed
func (r StageResult) ColsDropped() int {
	return r.ColsBefore - r.ColsAfter
}

// RunReport summarizes a full pipeline run
type RunReport struct {
	RunID        string
	Stages       []StageResult
	InitialRows  int
	InitialCols  int
	FinalRows    int
	FinalCols    int
	CellsFilled  int
	SoftFailures int
	Success      bool
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// NewRunReport initializes a report for a new pipeline run
func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.New().String(),
		Stages:    make([]StageResult, 0, 16),
		StartTime: time.Now(),
	}
}

// AddStage incorporates a completed stage result into the report
func (r *RunReport) AddStage(result StageResult) {
	r.Stages = append(r.Stages, result)
	r.FinalRows = result.RowsAfter
	r.FinalCols = result.ColsAfter
	r.CellsFilled += result.CellsFilled
}

// Complete marks the run as finished and fixes the duration
func (r *RunReport) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// RowsDropped returns the total rows removed across all stages
func (r *RunReport) RowsDropped() int {
	total := 0
	for _, s := range r.Stages {
		total += s.RowsDropped()
	}
	return total
}

// ColsDropped returns the total columns removed across all stages
func (r *RunReport) ColsDropped() int {
	total := 0
	for _, s := range r.Stages {
		total += s.ColsDropped()
	}
	return total
}
