package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/storage"
	"github.com/Veraticus/sift/internal/testutil"
)

// testSettings returns default settings pointing at a database in a temp dir.
func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("database.path", filepath.Join(t.TempDir(), "sift.db"))
	v.Set("engine.workers", 2)

	settings, err := config.Load(v)
	require.NoError(t, err)
	return settings
}

// createTestStore opens migrated storage with a small catalog.
func createTestStore(t *testing.T, settings *config.Settings) *storage.SQLiteStorage {
	t.Helper()
	ctx := context.Background()

	store, err := initStorage(ctx, settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, c := range []struct{ name, parent string }{
		{"Food", ""},
		{"Coffee", "Food"},
		{"Travel", ""},
	} {
		_, err := store.CreateCategory(ctx, c.name, c.parent)
		require.NoError(t, err)
	}
	_, err = store.CreatePayoree(ctx, "Starbucks")
	require.NoError(t, err)

	return store
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadRecords_CSV(t *testing.T) {
	path := writeFile(t, "checking.csv", "Date,Description,Amount\n"+
		"2025-01-05,STARBUCKS #12345 SEATTLE WA,-5.75\n"+
		"bad,ROW,1\n")

	records, err := readRecords(context.Background(), path, importOptions{AccountID: "checking"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "checking", records[0].AccountID)
	assert.True(t, testutil.Amount("-5.75").Equal(records[0].Amount))
}

func TestReadRecords_TabDelimited(t *testing.T) {
	path := writeFile(t, "export.tsv", "date\tdescription\tamount\n2025-01-05\tNETFLIX.COM\t-15.99\n")

	records, err := readRecords(context.Background(), path, importOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "NETFLIX.COM", records[0].Description)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := readRecords(context.Background(), writeFile(t, "data.json", "{}"), importOptions{})
	assert.ErrorIs(t, err, errUnsupportedFormat)

	_, err = readRecords(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), importOptions{})
	assert.Error(t, err)
}

func TestDateSpan(t *testing.T) {
	_, _, ok := dateSpan(nil)
	assert.False(t, ok)

	start, end, ok := dateSpan([]model.TransactionRecord{
		testutil.NewRecord("A").On("2025-03-02").Build(),
		{Description: "no date"},
		testutil.NewRecord("B").On("2025-01-15").Build(),
		testutil.NewRecord("C").On("2025-02-01").Build(),
	})
	require.True(t, ok)
	assert.Equal(t, "2025-01-15", start.Format(model.DateLayout))
	assert.Equal(t, "2025-03-02", end.Format(model.DateLayout))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}
