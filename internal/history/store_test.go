package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/pkg/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "history.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &Batch{
		ID:         uuid.New().String(),
		CreatedAt:  time.Date(2025, 7, 5, 10, 0, 0, 0, time.UTC),
		Mode:       "semantic",
		TotalLines: 3,
		Succeeded:  2,
		Failed:     1,
		StartRow:   9,
		EndRow:     10,
		BackupPath: "/backups/declaration_backup_20250705_100000.xlsx",
	}
	second := &Batch{
		ID:         uuid.New().String(),
		CreatedAt:  time.Date(2025, 7, 6, 10, 0, 0, 0, time.UTC),
		Mode:       "rule",
		TotalLines: 1,
		Succeeded:  1,
		StartRow:   11,
		EndRow:     11,
	}

	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	batches, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// Newest first.
	assert.Equal(t, second.ID, batches[0].ID)
	assert.Equal(t, first.ID, batches[1].ID)
	assert.Equal(t, "semantic", batches[1].Mode)
	assert.Equal(t, 2, batches[1].Succeeded)
	assert.Equal(t, first.BackupPath, batches[1].BackupPath)
}

func TestStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, &Batch{
			ID:        uuid.New().String(),
			CreatedAt: time.Date(2025, 7, 5, 10, i, 0, 0, time.UTC),
			Mode:      "rule",
		}))
	}

	batches, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestStore_RecentEmpty(t *testing.T) {
	store := newTestStore(t)

	batches, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
