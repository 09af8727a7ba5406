package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// FeatureRunRepository persists assembled feature matrices so downstream
// training jobs can consume a run without re-extraction.
type FeatureRunRepository interface {
	CreateRun(ctx context.Context, run domain.FeatureRun) error
	GetRun(ctx context.Context, id uuid.UUID) (domain.FeatureRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.FeatureRun, error)
	SaveMatrix(ctx context.Context, runID uuid.UUID, matrix *features.Table, provenance map[string]string) error
	DeleteRun(ctx context.Context, id uuid.UUID) error
}
