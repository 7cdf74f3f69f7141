// pkg/loader/snowflake.go
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/config"
	"github.com/roadscope/accidents-pipeline/pkg/connector"
	"github.com/roadscope/accidents-pipeline/pkg/table"
)

// SnowflakeLoader reads the raw accidents table from a Snowflake warehouse
// in batches. Rows are ordered by the identity key so first-occurrence
// deduplication downstream stays deterministic across runs.
type SnowflakeLoader struct {
	conn   *connector.SnowflakeConnector
	cfg    *config.SnowflakeConfig
	logger *zap.Logger
}

// NewSnowflakeLoader creates a new SnowflakeLoader instance
func NewSnowflakeLoader(conn *connector.SnowflakeConnector, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeLoader, error) {
	if conn == nil {
		return nil, errors.New("snowflake connector cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("snowflake configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &SnowflakeLoader{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Load fetches the full source table into memory
func (l *SnowflakeLoader) Load(ctx context.Context, batchSize int) (*table.Table, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY "ID"`, l.cfg.QualifiedTable())

	var tbl *table.Table
	err := l.conn.BatchQuery(ctx, query, batchSize, func(rows *sql.Rows) error {
		if tbl == nil {
			cols, err := rows.Columns()
			if err != nil {
				return fmt.Errorf("failed to read result columns: %w", err)
			}
			tbl, err = table.New(cols)
			if err != nil {
				return err
			}
		}

		raw := make([]interface{}, tbl.NumCols())
		ptrs := make([]interface{}, tbl.NumCols())
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]table.Value, len(raw))
		for i, v := range raw {
			row[i] = convertDBValue(v)
		}
		return tbl.AppendRow(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load from Snowflake: %w", err)
	}

	if tbl == nil {
		return nil, fmt.Errorf("source table %s returned no rows", l.cfg.QualifiedTable())
	}

	l.logger.Info("Loaded raw data",
		zap.String("table", l.cfg.QualifiedTable()),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))
	return tbl, nil
}

// convertDBValue maps a driver value onto a table cell. Strings go through
// the same type inference as CSV cells so both sources produce identical
// tables for identical data.
func convertDBValue(v interface{}) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case float64:
		return table.Number(x)
	case float32:
		return table.Number(float64(x))
	case int64:
		return table.Number(float64(x))
	case int:
		return table.Number(float64(x))
	case bool:
		return table.Bool(x)
	case time.Time:
		return table.Time(x)
	case []byte:
		return table.InferCell(string(x))
	case string:
		return table.InferCell(x)
	default:
		return table.InferCell(fmt.Sprintf("%v", x))
	}
}
