// cmd/preprocess/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roadscope/accidents-pipeline/pkg/config"
	"github.com/roadscope/accidents-pipeline/pkg/connector"
	"github.com/roadscope/accidents-pipeline/pkg/loader"
	"github.com/roadscope/accidents-pipeline/pkg/pipeline"
	"github.com/roadscope/accidents-pipeline/pkg/table"
	"github.com/roadscope/accidents-pipeline/pkg/writer"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Preprocessing failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	tbl, err := loadRaw(ctx, cfg, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, logger.Named("pipeline"))
	if err != nil {
		return err
	}

	report, err := p.Run(tbl)
	if err != nil {
		return err
	}

	verification := pipeline.NewVerifier(logger.Named("verifier")).Verify(tbl)
	if !verification.Verified {
		logger.Warn("Cleaned table failed verification",
			zap.Int("issues", len(verification.Issues)))
	}

	if err := writeClean(ctx, cfg, logger, tbl); err != nil {
		return err
	}

	logger.Info("Preprocessing complete",
		zap.String("run_id", report.RunID),
		zap.Int("initial_rows", report.InitialRows),
		zap.Int("initial_columns", report.InitialCols),
		zap.Int("final_rows", report.FinalRows),
		zap.Int("final_columns", report.FinalCols),
		zap.Duration("duration", report.Duration))
	return nil
}

func loadRaw(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*table.Table, error) {
	switch cfg.Source {
	case config.SourceSnowflake:
		conn, err := connector.NewSnowflakeConnector(ctx, cfg.Snowflake)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		if err := conn.Validate(); err != nil {
			return nil, err
		}

		l, err := loader.NewSnowflakeLoader(conn, cfg.Snowflake, logger.Named("loader"))
		if err != nil {
			return nil, err
		}
		return l.Load(ctx, cfg.BatchSize)

	default:
		l, err := loader.NewCSVLoader(logger.Named("loader"))
		if err != nil {
			return nil, err
		}
		return l.Load(cfg.InputPath)
	}
}

func writeClean(ctx context.Context, cfg *config.Config, logger *zap.Logger, tbl *table.Table) error {
	switch cfg.Sink {
	case config.SinkPostgres:
		conn, err := connector.NewPostgresConnector(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Validate(); err != nil {
			return err
		}

		w, err := writer.NewPostgresWriter(conn, logger.Named("writer"))
		if err != nil {
			return err
		}
		return w.Write(ctx, tbl, cfg.BatchSize)

	default:
		w, err := writer.NewCSVWriter(logger.Named("writer"))
		if err != nil {
			return err
		}
		return w.Write(cfg.OutputPath, tbl)
	}
}

// buildLogger constructs a zap logger from the configured level and format
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
