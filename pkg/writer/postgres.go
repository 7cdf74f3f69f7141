// pkg/writer/postgres.go
package writer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/connector"
	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// PostgresWriter persists the cleaned table into PostgreSQL so the
// dashboards can query it directly instead of reading the CSV
type PostgresWriter struct {
	conn   *connector.PostgresConnector
	logger *zap.Logger
}

// NewPostgresWriter creates a new PostgresWriter instance
func NewPostgresWriter(conn *connector.PostgresConnector, logger *zap.Logger) (*PostgresWriter, error) {
	if conn == nil {
		return nil, errors.New("postgres connector cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &PostgresWriter{conn: conn, logger: logger}, nil
}

// Write creates the destination table when absent and bulk-inserts every
// row. The pipeline guarantees no nulls remain, so column types can be
// inferred from the first row.
func (w *PostgresWriter) Write(ctx context.Context, tbl *table.Table, batchSize int) error {
	if tbl.NumRows() == 0 {
		return errors.New("cleaned table has no rows to persist")
	}

	cols := tbl.Columns()
	columnDefs := make([]string, len(cols))
	for i, col := range cols {
		sqlType, err := columnSQLType(tbl, col)
		if err != nil {
			return err
		}
		columnDefs[i] = fmt.Sprintf("%q %s", col, sqlType)
	}

	if err := w.conn.CreateTableIfNotExists(ctx, columnDefs); err != nil {
		return err
	}

	valueRows := make([][]interface{}, tbl.NumRows())
	for r := 0; r < tbl.NumRows(); r++ {
		row := make([]interface{}, len(cols))
		for i, col := range cols {
			v, err := tbl.Value(r, col)
			if err != nil {
				return err
			}
			row[i] = sqlValue(v)
		}
		valueRows[r] = row
	}

	inserted, err := w.conn.BatchInsert(ctx, cols, valueRows, batchSize)
	if err != nil {
		return fmt.Errorf("failed to persist cleaned table: %w", err)
	}

	w.logger.Info("Wrote cleaned data",
		zap.Int64("rows", inserted),
		zap.Int("columns", len(cols)))
	return nil
}

// columnSQLType picks a PostgreSQL type from the first cell of the column
func columnSQLType(tbl *table.Table, col string) (string, error) {
	v, err := tbl.Value(0, col)
	if err != nil {
		return "", err
	}

	switch v.Kind() {
	case table.KindNumber:
		return "DOUBLE PRECISION", nil
	case table.KindBool:
		return "BOOLEAN", nil
	case table.KindTime:
		return "TIMESTAMP", nil
	case table.KindString:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("column %q holds a null in the cleaned table", col)
	}
}

// sqlValue converts a cell into a driver-compatible value
func sqlValue(v table.Value) interface{} {
	if f, ok := v.Num(); ok {
		return f
	}
	if b, ok := v.BoolVal(); ok {
		return b
	}
	if t, ok := v.TimeVal(); ok {
		return t
	}
	if s, ok := v.Str(); ok {
		return s
	}
	return nil
}
