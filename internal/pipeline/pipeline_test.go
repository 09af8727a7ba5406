package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailai/basketfeat/internal/config"
	"github.com/retailai/basketfeat/internal/domain"
	"github.com/retailai/basketfeat/internal/features"
)

const transactionsCSV = `order_id,user_id,order_number,product_id,reordered,order_dow,order_hour_of_day,days_since_prior_order,add_to_cart_order
101,1,1,10,0,0,9,,1
101,1,1,20,0,0,9,,2
102,1,2,10,1,1,10,7,1
103,1,3,10,1,2,11,5,1
103,1,3,30,0,2,11,5,2
201,2,1,20,0,3,12,,1
202,2,2,20,1,4,13,3,1
`

const productsCSV = `product_id,product_name,aisle_id,department_id,aisle,department
10,Whole Milk,1,1,dairy,beverages
20,Sourdough,2,2,bread,bakery
30,Espresso Beans,3,1,coffee,beverages
`

func writeRawFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte(transactionsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"), []byte(productsCSV), 0o644))
	return dir
}

// mockRunRepository captures persisted runs in memory.
type mockRunRepository struct {
	created    []domain.FeatureRun
	saved      map[uuid.UUID]*features.Table
	provenance map[uuid.UUID]map[string]string
	createErr  error
}

func newMockRunRepository() *mockRunRepository {
	return &mockRunRepository{
		saved:      make(map[uuid.UUID]*features.Table),
		provenance: make(map[uuid.UUID]map[string]string),
	}
}

func (m *mockRunRepository) CreateRun(_ context.Context, run domain.FeatureRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, run)
	return nil
}

func (m *mockRunRepository) GetRun(_ context.Context, id uuid.UUID) (domain.FeatureRun, error) {
	for _, run := range m.created {
		if run.ID == id {
			return run, nil
		}
	}
	return domain.FeatureRun{}, errors.New("run not found")
}

func (m *mockRunRepository) ListRuns(_ context.Context, limit int) ([]domain.FeatureRun, error) {
	runs := m.created
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *mockRunRepository) SaveMatrix(_ context.Context, runID uuid.UUID, matrix *features.Table, provenance map[string]string) error {
	m.saved[runID] = matrix
	m.provenance[runID] = provenance
	return nil
}

func (m *mockRunRepository) DeleteRun(_ context.Context, id uuid.UUID) error {
	delete(m.saved, id)
	return nil
}

func TestPipeline_Run(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = writeRawFiles(t)
	cfg.HistoryLimit = 0

	result, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	// Past orders after the target split: 101, 102 (user 1) and 201
	// (user 2); first-seen pair order fixes the index.
	wantIndex := []domain.UserItem{
		{UserID: 1, ItemID: 10},
		{UserID: 1, ItemID: 20},
		{UserID: 2, ItemID: 20},
	}
	assert.Equal(t, wantIndex, result.Matrix.Index)

	inTarget, ok := result.Matrix.Column("ui_in_target")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0, 1}, inTarget)

	freq, ok := result.Matrix.Column("freq")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 1, 1}, freq)

	assert.Equal(t, len(wantIndex), result.Run.Rows)
	assert.Equal(t, len(result.Matrix.Columns), result.Run.Columns)
	assert.True(t, result.Run.Train)
	assert.Equal(t, "counts.freq", result.Provenance["freq"])
}

func TestPipeline_RunWithoutSplit(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = writeRawFiles(t)
	cfg.Train = false
	cfg.HistoryLimit = 0

	result, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Dataset.TargetTransactions)
	assert.False(t, result.Run.Train)

	// With no held-out order the label column is all zeros.
	inTarget, ok := result.Matrix.Column("ui_in_target")
	require.True(t, ok)
	for _, value := range inTarget {
		assert.Zero(t, value)
	}
}

func TestPipeline_PersistsRun(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = writeRawFiles(t)
	cfg.HistoryLimit = 0

	repo := newMockRunRepository()
	result, err := New(cfg, repo, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, result.Run.ID, repo.created[0].ID)
	assert.Same(t, result.Matrix, repo.saved[result.Run.ID])
	assert.Equal(t, result.Provenance, repo.provenance[result.Run.ID])
}

func TestPipeline_SinkFailure(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = writeRawFiles(t)

	repo := newMockRunRepository()
	repo.createErr = errors.New("connection refused")

	_, err := New(cfg, repo, nil).Run(context.Background())
	assert.ErrorIs(t, err, repo.createErr)
}

func TestPipeline_CachedRun(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = writeRawFiles(t)
	cfg.CacheDir = t.TempDir()
	cfg.HistoryLimit = 0

	first, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	// The second run reads every extractor output from the cache.
	second, err := New(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Diagnostics)
	assert.Equal(t, first.Matrix.ColumnNames(), second.Matrix.ColumnNames())

	for _, name := range first.Matrix.ColumnNames() {
		want, _ := first.Matrix.Column(name)
		got, _ := second.Matrix.Column(name)
		assert.Equal(t, want, got, "column %s", name)
	}

	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestPipeline_MissingRawFiles(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	_, err := New(cfg, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read transactions")
}
