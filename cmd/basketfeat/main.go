package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/retailai/basketfeat/internal/config"
	"github.com/retailai/basketfeat/internal/db"
	"github.com/retailai/basketfeat/internal/download"
	"github.com/retailai/basketfeat/internal/pipeline"
	"github.com/retailai/basketfeat/internal/repository"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	dataDir := flag.String("data", "", "override the raw data directory")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fetchRawFiles(ctx, cfg, logger); err != nil {
		logger.Fatal("failed to download raw files", zap.Error(err))
	}

	var repo repository.FeatureRunRepository
	if cfg.SinkEnabled {
		if err := db.RunMigrations(cfg.Database); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer conn.Close()
		repo = repository.NewFeatureRunRepository(conn.Pool)
	}

	result, err := pipeline.New(cfg, repo, logger).Run(ctx)
	if err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}

	logger.Info("pipeline run complete",
		zap.String("run_id", result.Run.ID.String()),
		zap.Int("rows", result.Run.Rows),
		zap.Int("columns", result.Run.Columns),
		zap.Int("failed_extractors", len(result.Diagnostics)))
}

// fetchRawFiles downloads the raw dataset files when URLs are configured.
func fetchRawFiles(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	client := download.NewClient(nil, logger)
	if url := cfg.Download.TransactionsURL; url != "" {
		info := download.FileInfo{Name: "transactions.csv.zip", URL: url, MD5: cfg.Download.TransactionsMD5}
		if _, err := client.Fetch(ctx, info, cfg.DataDir); err != nil {
			return err
		}
	}
	if url := cfg.Download.ProductsURL; url != "" {
		info := download.FileInfo{Name: "products.csv.zip", URL: url, MD5: cfg.Download.ProductsMD5}
		if _, err := client.Fetch(ctx, info, cfg.DataDir); err != nil {
			return err
		}
	}
	return nil
}
