// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/config"
)

// SnowflakeConnector reads the raw accidents table from a Snowflake
// warehouse when the pipeline's source is configured as "snowflake"
type SnowflakeConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeConnector creates and verifies a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies connectivity and that the raw table is visible
func (c *SnowflakeConnector) Validate() error {
	var role, database, warehouse string
	err := c.db.QueryRow("SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	if database != c.cfg.Database {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, c.cfg.Database)
	}

	var count int64
	err = c.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s", c.cfg.QualifiedTable())).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to read source table %s: %w", c.cfg.QualifiedTable(), err)
	}

	c.logger.Info("Source table visible",
		zap.String("table", c.cfg.QualifiedTable()),
		zap.Int64("rows", count))
	return nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *SnowflakeConnector) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.QueryContext(queryCtx, query, args...)
}

// BatchQuery fetches a large result set in LIMIT/OFFSET batches. The query
// must carry a deterministic ORDER BY so batch boundaries are stable and
// first-occurrence semantics downstream are well defined.
func (c *SnowflakeConnector) BatchQuery(
	ctx context.Context,
	query string,
	batchSize int,
	processor func(*sql.Rows) error,
) error {
	if batchSize <= 0 {
		batchSize = 10000
	}

	timeout := c.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	offset := 0
	for {
		batchQuery := fmt.Sprintf("%s LIMIT %d OFFSET %d", query, batchSize, offset)
		rows, err := c.QueryWithTimeout(ctx, batchQuery, timeout)
		if err != nil {
			return fmt.Errorf("batch query failed at offset %d: %w", offset, err)
		}

		rowCount := 0
		for rows.Next() {
			rowCount++
			if err := processor(rows); err != nil {
				rows.Close()
				return fmt.Errorf("row processing failed at offset %d: %w", offset, err)
			}
		}

		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating rows at offset %d: %w", offset, err)
		}

		if rowCount < batchSize {
			break
		}
		offset += batchSize
	}

	return nil
}
