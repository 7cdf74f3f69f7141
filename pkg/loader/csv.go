// pkg/loader/csv.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// CSVLoader reads a raw tabular file into an in-memory table
type CSVLoader struct {
	logger *zap.Logger
}

// NewCSVLoader creates a new CSVLoader instance
func NewCSVLoader(logger *zap.Logger) (*CSVLoader, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &CSVLoader{logger: logger}, nil
}

// Load reads the file at path and reports the initial shape
func (l *CSVLoader) Load(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	tbl, err := l.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	l.logger.Info("Loaded raw data",
		zap.String("path", path),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))
	return tbl, nil
}

// Read parses CSV content with a header row. Each cell is type-inferred:
// empty cells become null, numeric and boolean cells are typed, and
// everything else (timestamps included) stays a string for the validation
// stages to parse.
func (l *CSVLoader) Read(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("input is empty: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	tbl, err := table.New(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		row := make([]table.Value, len(record))
		for i, cell := range record {
			row[i] = table.InferCell(cell)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}
