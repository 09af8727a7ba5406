package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

// featureRunRepository implements FeatureRunRepository over pgx.
type featureRunRepository struct {
	pool *pgxpool.Pool
}

// NewFeatureRunRepository creates a feature run repository backed by pgxpool.
func NewFeatureRunRepository(pool *pgxpool.Pool) FeatureRunRepository {
	return &featureRunRepository{pool: pool}
}

func (r *featureRunRepository) CreateRun(ctx context.Context, run domain.FeatureRun) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO feature_runs (id, train, rows, columns, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Train, run.Rows, run.Columns, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feature run: %w", err)
	}
	return nil
}

func (r *featureRunRepository) GetRun(ctx context.Context, id uuid.UUID) (domain.FeatureRun, error) {
	var run domain.FeatureRun
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, train, rows, columns, created_at FROM feature_runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.Train, &run.Rows, &run.Columns, &run.CreatedAt)
	if err != nil {
		return domain.FeatureRun{}, fmt.Errorf("failed to get feature run: %w", err)
	}
	return run, nil
}

func (r *featureRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.FeatureRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, train, rows, columns, created_at
		 FROM feature_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.FeatureRun
	for rows.Next() {
		var run domain.FeatureRun
		if err := rows.Scan(&run.ID, &run.Train, &run.Rows, &run.Columns, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feature run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feature runs: %w", err)
	}
	return runs, nil
}

// SaveMatrix bulk-loads the matrix in long form, one row per (pair, column),
// then records column provenance in assembly order.
func (r *featureRunRepository) SaveMatrix(ctx context.Context, runID uuid.UUID, matrix *features.Table, provenance map[string]string) error {
	if matrix == nil {
		return fmt.Errorf("matrix is required")
	}

	rows := make([][]any, 0, len(matrix.Index)*len(matrix.Columns))
	for _, col := range matrix.Columns {
		for i, key := range matrix.Index {
			rows = append(rows, []any{runID, int64(key.UserID), int64(key.ItemID), col.Name, col.Values[i]})
		}
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"feature_values"},
		[]string{"run_id", "user_id", "item_id", "feature", "value"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy feature values: %w", err)
	}

	for position, col := range matrix.Columns {
		_, err := r.pool.Exec(
			ctx,
			`INSERT INTO feature_provenance (run_id, position, feature, extractor)
			 VALUES ($1, $2, $3, $4)`,
			runID, position, col.Name, provenance[col.Name],
		)
		if err != nil {
			return fmt.Errorf("failed to record provenance for %s: %w", col.Name, err)
		}
	}
	return nil
}

func (r *featureRunRepository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM feature_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature run: %w", err)
	}
	return nil
}
