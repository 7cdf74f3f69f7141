// pkg/pipeline/pipeline.go
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/config"
	"github.com/roadscope/accidents-pipeline/pkg/impute"
	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// Pipeline runs the fixed cleaning and feature-engineering sequence over an
// in-memory table. Stages execute strictly in order, single-threaded; each
// stage's output is the next stage's required input.
type Pipeline struct {
	cfg       *config.Config
	logger    *zap.Logger
	rules     []impute.Rule
	softFails *SoftFailRecorder
}

// New creates a pipeline with the default targeted-imputation rules
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		rules:     impute.DefaultRules(),
		softFails: NewSoftFailRecorder(logger),
	}, nil
}

// WithRules replaces the targeted-imputation registry
func (p *Pipeline) WithRules(rules []impute.Rule) *Pipeline {
	p.rules = rules
	return p
}

// SoftFailures returns the recorder counting coerced cells for this run
func (p *Pipeline) SoftFailures() *SoftFailRecorder {
	return p.softFails
}

// Run mutates the table through every stage and returns the run report.
// A structural failure (required column missing) aborts before any
// mutation; parse failures and skipped imputation strategies never abort.
func (p *Pipeline) Run(tbl *table.Table) (*RunReport, error) {
	if tbl == nil {
		return nil, errors.New("table cannot be nil")
	}

	report := NewRunReport()
	report.InitialRows = tbl.NumRows()
	report.InitialCols = tbl.NumCols()

	p.logger.Info("Starting pipeline run",
		zap.String("run_id", report.RunID),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))

	if err := validateStructure(tbl); err != nil {
		report.Complete(false)
		return report, fmt.Errorf("structural validation failed: %w", err)
	}

	stages := []struct {
		name string
		run  func(tbl *table.Table) (filled int, skipped bool, err error)
	}{
		{"deduplicate", func(tbl *table.Table) (int, bool, error) {
			_, err := Deduplicate(tbl, "ID")
			return 0, false, err
		}},
		{"drop_high_missingness_columns", func(tbl *table.Table) (int, bool, error) {
			dropped, err := DropHighMissingness(tbl, p.cfg.ColumnDropThreshold)
			if err == nil && len(dropped) > 0 {
				p.logger.Info("Dropped high-missingness columns",
					zap.Strings("columns", dropped),
					zap.Float64("threshold", p.cfg.ColumnDropThreshold))
			}
			return 0, false, err
		}},
		{"drop_non_analytical_columns", func(tbl *table.Table) (int, bool, error) {
			DropNonAnalytical(tbl)
			return 0, false, nil
		}},
		{"validate_temporal", func(tbl *table.Table) (int, bool, error) {
			_, err := ValidateTemporal(tbl, p.softFails)
			return 0, false, err
		}},
		{"validate_geographic", func(tbl *table.Table) (int, bool, error) {
			_, err := ValidateGeographic(tbl, p.softFails)
			return 0, false, err
		}},
		{"filter_severity", func(tbl *table.Table) (int, bool, error) {
			_, err := FilterSeverity(tbl)
			return 0, false, err
		}},
		{"drop_low_missingness_rows", func(tbl *table.Table) (int, bool, error) {
			_, cols, err := DropLowMissingnessRows(tbl, p.cfg.RowDropBand)
			if err == nil && len(cols) > 0 {
				p.logger.Info("Dropped rows for low-missingness columns",
					zap.Strings("columns", cols),
					zap.Float64("band", p.cfg.RowDropBand))
			}
			return 0, false, err
		}},
		{"targeted_imputation", p.runTargetedImputation},
		{"general_numeric_imputation", func(tbl *table.Table) (int, bool, error) {
			filled, err := impute.FillNumericMedians(tbl)
			total := 0
			for col, n := range filled {
				total += n
				p.logger.Info("Median-filled numeric column",
					zap.String("column", col),
					zap.Int("filled", n))
			}
			return total, false, err
		}},
		{"temporal_features", func(tbl *table.Table) (int, bool, error) {
			built, err := BuildTemporalFeatures(tbl)
			return 0, !built, err
		}},
		{"categorical_features", func(tbl *table.Table) (int, bool, error) {
			_, err := EncodeCategoricalFeatures(tbl)
			return 0, false, err
		}},
		{"state_name_expansion", func(tbl *table.Table) (int, bool, error) {
			if !p.cfg.StateNameExpansion {
				return 0, true, nil
			}
			built, err := ExpandStateNames(tbl)
			return 0, !built, err
		}},
		{"drop_redundant_columns", func(tbl *table.Table) (int, bool, error) {
			DropRedundant(tbl)
			return 0, false, nil
		}},
		{"final_cleanup", func(tbl *table.Table) (int, bool, error) {
			dropped := FinalCleanup(tbl)
			if dropped > 0 {
				p.logger.Warn("Final cleanup dropped incomplete rows",
					zap.Int("rows", dropped))
			}
			return 0, false, nil
		}},
	}

	for _, stage := range stages {
		result := StageResult{
			Name:       stage.name,
			RowsBefore: tbl.NumRows(),
			ColsBefore: tbl.NumCols(),
			StartTime:  time.Now(),
		}

		filled, skipped, err := stage.run(tbl)

		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		result.RowsAfter = tbl.NumRows()
		result.ColsAfter = tbl.NumCols()
		result.CellsFilled = filled
		result.Skipped = skipped
		report.AddStage(result)

		if err != nil {
			report.Complete(false)
			return report, fmt.Errorf("stage %s failed: %w", stage.name, err)
		}

		p.logger.Info("Stage complete",
			zap.String("stage", stage.name),
			zap.Int("rows", result.RowsAfter),
			zap.Int("columns", result.ColsAfter),
			zap.Int("rows_dropped", result.RowsDropped()),
			zap.Int("columns_dropped", result.ColsDropped()),
			zap.Int("cells_filled", result.CellsFilled),
			zap.Bool("skipped", result.Skipped),
			zap.Duration("duration", result.Duration))
	}

	p.softFails.LogSummary()
	report.SoftFailures = p.softFails.Total()
	report.Complete(true)

	p.logger.Info("Pipeline run complete",
		zap.String("run_id", report.RunID),
		zap.Int("final_rows", report.FinalRows),
		zap.Int("final_columns", report.FinalCols),
		zap.Int("rows_dropped", report.RowsDropped()),
		zap.Int("columns_dropped", report.ColsDropped()),
		zap.Int("cells_filled", report.CellsFilled),
		zap.Int("soft_failures", report.SoftFailures),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// runTargetedImputation applies the column-specific strategy registry.
// A strategy whose preconditions are not met is skipped; its column falls
// through to general median imputation.
func (p *Pipeline) runTargetedImputation(tbl *table.Table) (int, bool, error) {
	total := 0
	for _, rule := range p.rules {
		n, err := rule.Strategy.Apply(tbl, rule.Column)
		if err != nil {
			if errors.Is(err, impute.ErrSkipped) {
				p.logger.Info("Targeted imputation skipped",
					zap.String("column", rule.Column),
					zap.String("strategy", rule.Strategy.Name()),
					zap.String("category", ErrorCategoryPrecondition.String()),
					zap.String("reason", err.Error()))
				continue
			}
			return total, false, fmt.Errorf("imputing %s: %w", rule.Column, err)
		}

		total += n
		if n > 0 {
			p.logger.Info("Targeted imputation complete",
				zap.String("column", rule.Column),
				zap.String("strategy", rule.Strategy.Name()),
				zap.Int("filled", n))
		}
	}
	return total, false, nil
}
