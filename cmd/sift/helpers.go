package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/csvimport"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/ofx"
	"github.com/Veraticus/sift/internal/storage"
)

// errUnsupportedFormat is returned for input files that are neither CSV nor OFX.
var errUnsupportedFormat = errors.New("unsupported file format")

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// importOptions controls how input files are read.
type importOptions struct {
	AccountID string
	Delimiter string
}

// readRecords parses a CSV or OFX/QFX file chosen by extension. Rows of a CSV
// file that cannot be converted are logged and skipped.
func readRecords(ctx context.Context, path string, opts importOptions) ([]model.TransactionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		delimiter := ','
		switch {
		case opts.Delimiter == `\t` || strings.EqualFold(filepath.Ext(path), ".tsv"):
			delimiter = '\t'
		case opts.Delimiter != "":
			delimiter = []rune(opts.Delimiter)[0]
		}

		records, rowErrs, err := csvimport.NewReader(csvimport.Options{
			AccountID: opts.AccountID,
			Delimiter: delimiter,
		}).Read(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, rowErr := range rowErrs {
			slog.Warn("Skipped CSV row", "file", path, "line", rowErr.Line, "error", rowErr.Err)
		}
		return records, nil

	case ".ofx", ".qfx":
		records, err := ofx.NewParser().ParseFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if opts.AccountID != "" {
			for i := range records {
				records[i].AccountID = opts.AccountID
			}
		}
		return records, nil

	default:
		return nil, fmt.Errorf("%w: %s (expected .csv, .ofx or .qfx)", errUnsupportedFormat, path)
	}
}

// dateSpan returns the earliest and latest dates among records.
func dateSpan(records []model.TransactionRecord) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		if !found || rec.Date.Before(start) {
			start = rec.Date
		}
		if !found || rec.Date.After(end) {
			end = rec.Date
		}
		found = true
	}
	return start, end, found
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		if minutes := int(duration.Minutes()); minutes != 1 {
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		return "1 minute ago"
	case duration < 24*time.Hour:
		if hours := int(duration.Hours()); hours != 1 {
			return fmt.Sprintf("%d hours ago", hours)
		}
		return "1 hour ago"
	case duration < 7*24*time.Hour:
		if days := int(duration.Hours() / 24); days != 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return "yesterday"
	default:
		return t.Format("2006-01-02 15:04")
	}
}
