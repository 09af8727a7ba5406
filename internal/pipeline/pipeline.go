// Package pipeline wires ingestion, dataset assembly and feature extraction
// into one batch run.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailai/basketfeat/internal/config"
	"github.com/retailai/basketfeat/internal/dataset"
	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/featcache"
	"github.com/retailai/basketfeat/internal/features"
	"github.com/retailai/basketfeat/internal/features/extractors"
	"github.com/retailai/basketfeat/internal/ingestion"
	"github.com/retailai/basketfeat/internal/repository"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Run         domain.FeatureRun
	Dataset     *dataset.Dataset
	Matrix      *features.Table
	Provenance  map[string]string
	Diagnostics []features.Diagnostic
}

// Pipeline runs the dataset build end to end. The sink repository is
// optional; without it the run stays in memory.
type Pipeline struct {
	cfg    config.Config
	repo   repository.FeatureRunRepository
	logger *zap.Logger
}

// New creates a pipeline. repo may be nil.
func New(cfg config.Config, repo repository.FeatureRunRepository, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, repo: repo, logger: logger}
}

// Run reads the raw files, builds the canonical dataset, extracts every
// registered feature and optionally persists the matrix.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	rawTrns, err := ingestion.ReadTransactions(p.cfg.DataDir, ingestion.ReadOptions{Reduced: p.cfg.Reduced})
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	rawProds, err := ingestion.ReadProducts(p.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	trns, err := dataset.CanonicalizeTransactions(rawTrns, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize transactions: %w", err)
	}
	products, err := dataset.CanonicalizeProducts(rawProds)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize products: %w", err)
	}

	ds, err := dataset.Build(trns, products, dataset.Options{
		Train:        p.cfg.Train,
		HistoryLimit: p.cfg.HistoryLimit,
		Logger:       p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}

	input := features.Input{
		Index:              ds.UserItemIndex(),
		Transactions:       ds.Transactions,
		Orders:             ds.Orders,
		Products:           ds.Products,
		TargetTransactions: ds.TargetTransactions,
	}

	opts := []features.Option{features.WithLogger(p.logger)}
	if p.cfg.CacheDir != "" {
		cache := featcache.New(p.cfg.CacheDir, featcache.WithLogger(p.logger))
		opts = append(opts, features.WithWrapper(cache.Wrap))
	}

	assembler := features.NewAssembler(input, opts...)
	if err := assembler.Register(extractors.Exports()...); err != nil {
		return nil, fmt.Errorf("failed to register extractors: %w", err)
	}

	diagnostics := assembler.ExtractFeatures()
	for _, diag := range diagnostics {
		p.logger.Warn("extractor skipped",
			zap.String("extractor", diag.Extractor),
			zap.Error(diag.Err))
	}

	matrix := assembler.Matrix()
	result := &Result{
		Run:         domain.NewFeatureRun(p.cfg.Train, len(matrix.Index), len(matrix.Columns)),
		Dataset:     ds,
		Matrix:      matrix,
		Provenance:  assembler.Provenance(),
		Diagnostics: diagnostics,
	}

	if p.repo != nil {
		if err := p.repo.CreateRun(ctx, result.Run); err != nil {
			return nil, err
		}
		if err := p.repo.SaveMatrix(ctx, result.Run.ID, matrix, result.Provenance); err != nil {
			return nil, err
		}
		p.logger.Info("feature run persisted", zap.String("run_id", result.Run.ID.String()))
	}

	return result, nil
}
