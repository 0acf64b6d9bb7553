package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/model"
)

func TestCheckpoint_CreateListDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)
	ctx := context.Background()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	info, err := cm.Create(ctx, "before-import", "manual")
	require.NoError(t, err)
	assert.Equal(t, "before-import", info.ID)
	assert.Equal(t, 5, info.Categories)
	assert.Equal(t, 2, info.Payorees)
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.False(t, info.IsAuto)
	assert.Positive(t, info.FileSize)

	_, err = cm.Create(ctx, "before-import", "again")
	require.ErrorIs(t, err, ErrCheckpointExists)

	_, err = cm.Create(ctx, "../escape", "")
	require.ErrorIs(t, err, ErrInvalidCheckpointID)

	list, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, cm.Delete(ctx, "before-import"))
	require.ErrorIs(t, cm.Delete(ctx, "before-import"), ErrCheckpointNotFound)

	list, err = cm.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckpoint_Restore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "restore.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	_, err = store.CreateCategory(ctx, "Food", "")
	require.NoError(t, err)

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)
	_, err = cm.Create(ctx, "one-category", "")
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, "Travel", "")
	require.NoError(t, err)

	require.NoError(t, cm.Restore(ctx, "one-category"))

	store, err = NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Food", categories[0].Name)

	lookup, err := store.LookupCategory(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, model.LookupNotFound, lookup.Status)
}

func TestCheckpoint_RestoreMissing(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)
	assert.ErrorIs(t, cm.Restore(context.Background(), "nope"), ErrCheckpointNotFound)
}

func TestCheckpoint_RestoreCorrupted(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cm.checkpointPath("broken"), []byte("not a database"), 0600))

	assert.ErrorIs(t, cm.Restore(context.Background(), "broken"), ErrCheckpointCorrupted)
}

func TestCheckpoint_AutoPrunes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	_, err = cm.Create(ctx, "manual", "")
	require.NoError(t, err)

	for i := range maxAutoCheckpoints + 2 {
		_, err := cm.AutoCheckpoint(ctx, fmt.Sprintf("commit%d", i))
		require.NoError(t, err)
	}

	list, err := cm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, auto)
	assert.Len(t, list, maxAutoCheckpoints+1)
}
