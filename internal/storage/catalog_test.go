package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

func seedCatalog(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	ctx := context.Background()

	for _, c := range []struct{ name, parent string }{
		{"Food", ""},
		{"Travel", ""},
		{"Coffee", "Food"},
		{"Misc", "Food"},
		{"Misc", "Travel"},
	} {
		_, err := store.CreateCategory(ctx, c.name, c.parent)
		require.NoError(t, err, "create %s/%s", c.parent, c.name)
	}
	for _, p := range []string{"Starbucks", "Shell Oil #1234"} {
		_, err := store.CreatePayoree(ctx, p)
		require.NoError(t, err)
	}
}

func TestLookupCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)
	ctx := context.Background()

	tests := []struct {
		name       string
		query      string
		wantParent string
		wantStatus model.LookupStatus
		wantCount  int
	}{
		{name: "top level", query: "Food", wantStatus: model.LookupFound},
		{name: "case insensitive", query: "fOOd", wantStatus: model.LookupFound},
		{name: "subcategory loads parent", query: "coffee", wantStatus: model.LookupFound, wantParent: "Food"},
		{name: "shared name is ambiguous", query: "Misc", wantStatus: model.LookupAmbiguous, wantCount: 2},
		{name: "unknown", query: "Pets", wantStatus: model.LookupNotFound},
		{name: "blank", query: "  ", wantStatus: model.LookupNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup, err := store.LookupCategory(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, lookup.Status)

			switch tt.wantStatus {
			case model.LookupFound:
				require.NotNil(t, lookup.Entity)
				if tt.wantParent == "" {
					assert.True(t, lookup.Entity.IsTopLevel())
				} else {
					require.NotNil(t, lookup.Entity.Parent)
					assert.Equal(t, tt.wantParent, lookup.Entity.Parent.Name)
				}
			case model.LookupAmbiguous:
				assert.Nil(t, lookup.Entity)
				assert.Len(t, lookup.Candidates, tt.wantCount)
			default:
				assert.Nil(t, lookup.Entity)
			}
		})
	}
}

func TestCreateCategory_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "FOOD", "")
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.CreateCategory(ctx, "coffee", "Food")
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.CreateCategory(ctx, "Bagels", "Pets")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.CreateCategory(ctx, "Espresso", "Coffee")
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = store.CreateCategory(ctx, "Receipts", "Misc")
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.CreateCategory(ctx, "", "")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestListCategories_ParentsFirst(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)

	categories, err := store.ListCategories(context.Background())
	require.NoError(t, err)

	var names []string
	for _, c := range categories {
		if c.Parent != nil {
			names = append(names, c.Parent.Name+"/"+c.Name)
		} else {
			names = append(names, c.Name)
		}
	}
	assert.Equal(t, []string{"Food", "Food/Coffee", "Food/Misc", "Travel", "Travel/Misc"}, names)
}

func TestLookupPayoree(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)
	ctx := context.Background()

	lookup, err := store.LookupPayoree(ctx, "STARBUCKS")
	require.NoError(t, err)
	require.Equal(t, model.LookupFound, lookup.Status)
	assert.Equal(t, "Starbucks", lookup.Entity.Name)

	lookup, err = store.LookupPayoree(ctx, "shell oil")
	require.NoError(t, err)
	require.Equal(t, model.LookupFound, lookup.Status, "normalized fallback")
	assert.Equal(t, "Shell Oil #1234", lookup.Entity.Name)

	_, err = store.CreatePayoree(ctx, "Shell-Oil")
	require.NoError(t, err)
	lookup, err = store.LookupPayoree(ctx, "shell oil")
	require.NoError(t, err)
	assert.Equal(t, model.LookupAmbiguous, lookup.Status)
	assert.Len(t, lookup.Candidates, 2)

	lookup, err = store.LookupPayoree(ctx, "Peets")
	require.NoError(t, err)
	assert.Equal(t, model.LookupNotFound, lookup.Status)
}

func TestCreatePayoree_Duplicate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)

	_, err := store.CreatePayoree(context.Background(), "starbucks")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	payorees, err := store.ListPayorees(context.Background())
	require.NoError(t, err)
	assert.Len(t, payorees, 2)
}
