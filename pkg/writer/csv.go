// pkg/writer/csv.go
package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// CSVWriter persists the cleaned table as a CSV file with a header row and
// no index column
type CSVWriter struct {
	logger *zap.Logger
}

// NewCSVWriter creates a new CSVWriter instance
func NewCSVWriter(logger *zap.Logger) (*CSVWriter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &CSVWriter{logger: logger}, nil
}

// Write persists the table to the file at path
func (w *CSVWriter) Write(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := w.WriteTo(f, tbl); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	w.logger.Info("Wrote cleaned data",
		zap.String("path", path),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))
	return nil
}

// WriteTo streams the table as CSV to out
func (w *CSVWriter) WriteTo(out io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(out)

	cols := tbl.Columns()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(cols))
	for r := 0; r < tbl.NumRows(); r++ {
		for i, col := range cols {
			v, err := tbl.Value(r, col)
			if err != nil {
				return err
			}
			record[i] = v.Format()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
