// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Source identifies where raw accident records are read from
const (
	SourceCSV       = "csv"
	SourceSnowflake = "snowflake"
)

// Sink identifies where the cleaned table is written to
const (
	SinkCSV      = "csv"
	SinkPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	// Data locations
	Source     string // "csv" or "snowflake"
	Sink       string // "csv" or "postgres"
	InputPath  string // raw CSV path when Source is "csv"
	OutputPath string // cleaned CSV path when Sink is "csv"

	// Cleaning thresholds
	ColumnDropThreshold float64 // drop columns with missing ratio above this
	RowDropBand         float64 // drop rows for columns with missing ratio in (0, band]

	// Optional enrichment
	StateNameExpansion bool

	// Batching for database source/sink
	BatchSize int

	// Database connections (loaded only when selected)
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Source:     getEnv("SOURCE", SourceCSV),
		Sink:       getEnv("SINK", SinkCSV),
		InputPath:  getEnv("INPUT_PATH", "US_Accidents_March23.csv"),
		OutputPath: getEnv("OUTPUT_PATH", "US_Accidents_preprocessed.csv"),

		ColumnDropThreshold: getEnvAsFloat("COLUMN_DROP_THRESHOLD", 0.30),
		RowDropBand:         getEnvAsFloat("ROW_DROP_BAND", 0.03),

		StateNameExpansion: getEnvAsBool("STATE_NAME_EXPANSION", false),

		BatchSize: getEnvAsInt("BATCH_SIZE", 5000),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.Source == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if cfg.Sink == SinkPostgres {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.InputPath == "" {
			return errors.New("input path is required for the csv source")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch c.Sink {
	case SinkCSV:
		if c.OutputPath == "" {
			return errors.New("output path is required for the csv sink")
		}
	case SinkPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	if c.ColumnDropThreshold <= 0 || c.ColumnDropThreshold >= 1 {
		return errors.New("column drop threshold must be in (0, 1)")
	}

	if c.RowDropBand <= 0 || c.RowDropBand >= 1 {
		return errors.New("row drop band must be in (0, 1)")
	}

	if c.RowDropBand > c.ColumnDropThreshold {
		return errors.New("row drop band cannot exceed the column drop threshold")
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
