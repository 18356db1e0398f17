// Command blockimporter bulk-loads a directory of block-archive files into
// PostgreSQL: scan -> decode -> hash -> COPY, per ingest.Pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/archive"
	"github.com/bitcoinchain/blockimporter/config"
	"github.com/bitcoinchain/blockimporter/ingest"
	"github.com/bitcoinchain/blockimporter/logger"
	"github.com/bitcoinchain/blockimporter/pgstore"
)

func main() {
	ctx := logger.ContextWithLogConfig(context.Background(), logger.NewDevelopmentConfig())
	ctx = context.WithValue(ctx, runIDKey{}, uuid.New().String())

	if err := run(ctx); err != nil {
		logger.Error(ctx, "blockimporter failed : %s", err)
		os.Exit(1)
	}
}

type runIDKey struct{}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	logger.Info(ctx, "Starting import run %v with config %s", ctx.Value(runIDKey{}), cfg)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := pgstore.SetupSchema(ctx, pool); err != nil {
		return errors.Wrap(err, "setup schema")
	}

	loader := pgstore.NewLoader(pool)

	if s3cfg, err := loadS3Config(); err == nil {
		loader = loader.WithArchiver(archive.NewS3Storage(s3cfg))
		logger.Info(ctx, "Archiving dropped blocks to s3://%s/%s", s3cfg.Bucket, s3cfg.Root)
	}

	pipelineCfg := ingest.DefaultConfig()
	pipelineCfg.BlocksPath = cfg.BlocksPath
	pipelineCfg.ChannelCapacity = cfg.ChannelCapacity
	pipelineCfg.InsertConcurrency = cfg.InsertConcurrency
	pipelineCfg.HashWorkers = cfg.HashWorkers
	pipelineCfg.MetricsInterval = time.Duration(cfg.MetricsIntervalSeconds) * time.Second

	pipeline := ingest.NewPipeline(pipelineCfg, loader)

	if err := pipeline.Run(ctx); err != nil {
		return errors.Wrap(err, "run pipeline")
	}

	logger.Info(ctx, "Import run complete")
	return nil
}

// loadS3Config reads the optional archive.S3Config from the environment.
// Archiving dropped blocks is best-effort: a missing ARCHIVE_BUCKET just
// means the loader runs without an archiver, not a startup failure.
func loadS3Config() (archive.S3Config, error) {
	var cfg archive.S3Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Bucket == "" {
		return cfg, fmt.Errorf("ARCHIVE_BUCKET not set")
	}
	return cfg, nil
}
