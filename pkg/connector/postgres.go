// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/config"
)

// PostgresConnector writes the cleaned table into PostgreSQL for the
// dashboards when the pipeline's sink is configured as "postgres"
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and verifies a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

// DB returns the underlying database handle
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the connection and that the destination schema exists
func (c *PostgresConnector) Validate() error {
	var version string
	err := c.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	_, err = c.db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", c.cfg.Schema))
	if err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.cfg.Schema, err)
	}

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *PostgresConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) error {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.db.ExecContext(queryCtx, query, args...)
	return err
}

// CreateTableIfNotExists creates the destination table when absent
func (c *PostgresConnector) CreateTableIfNotExists(
	ctx context.Context,
	columnDefs []string,
) error {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`
	err := c.db.QueryRowContext(ctx, query, c.cfg.Schema, c.cfg.Table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	if exists {
		c.logger.Debug("Table already exists", zap.String("table", c.cfg.QualifiedTable()))
		return nil
	}

	createSQL := fmt.Sprintf(
		"CREATE TABLE %s (\n\t%s\n)",
		c.cfg.QualifiedTable(),
		strings.Join(columnDefs, ",\n\t"),
	)

	if err := c.ExecWithTimeout(ctx, createSQL, 30*time.Second); err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.cfg.QualifiedTable(), err)
	}

	c.logger.Info("Created table", zap.String("table", c.cfg.QualifiedTable()))
	return nil
}

// BatchInsert performs multi-row inserts into the destination table.
// Column names are quoted because the dataset's measurement columns carry
// characters like parentheses and percent signs.
func (c *PostgresConnector) BatchInsert(
	ctx context.Context,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
) (int64, error) {
	if len(valueRows) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = 1000
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	columnStr := strings.Join(quoted, ", ")

	var totalRowsInserted int64
	for i := 0; i < len(valueRows); i += batchSize {
		end := i + batchSize
		if end > len(valueRows) {
			end = len(valueRows)
		}

		currentBatch := valueRows[i:end]
		placeholders := make([]string, len(currentBatch))
		args := make([]interface{}, 0, len(currentBatch)*len(columns))

		for j, row := range currentBatch {
			rowPlaceholders := make([]string, len(columns))
			for k, val := range row {
				paramIndex := j*len(columns) + k + 1
				rowPlaceholders[k] = fmt.Sprintf("$%d", paramIndex)
				args = append(args, val)
			}
			placeholders[j] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			c.cfg.QualifiedTable(), columnStr, strings.Join(placeholders, ", "))

		queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		result, err := c.db.ExecContext(queryCtx, query, args...)
		cancel()
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.logger.Warn("Couldn't get rows affected", zap.Error(err))
		} else {
			totalRowsInserted += rowsAffected
		}
	}

	return totalRowsInserted, nil
}
