package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
	"github.com/Veraticus/sift/internal/service"
)

// CommittedRow is an imported record together with the categorization the
// user accepted for it.
type CommittedRow struct {
	Result *model.CategorizationResult
	Record model.TransactionRecord
}

// SaveResults writes a batch of categorized rows in one transaction and
// returns the generated transaction IDs in input order.
func (s *SQLiteStorage) SaveResults(ctx context.Context, runID string, rows []CommittedRow) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, row := range rows {
		if err := validateCommitted(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer rollback(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, run_id, date, amount, description, normalized_description, account_id,
			category, subcategory, payoree, category_id, payoree_id,
			source, confidence, categorization_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", classify(err))
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = uuid.NewString()
		category, subcategory, categoryID := committedCategory(row.Result)
		payoree, payoreeID := committedPayoree(row.Result)

		normalized := row.Result.NormalizedDescription
		if normalized == "" {
			normalized = normalize.Normalize(row.Record.Description)
		}

		var categorizationError sql.NullString
		if code := row.Result.CategorizationError(); code != "" {
			categorizationError = sql.NullString{String: code, Valid: true}
		}

		source := row.Result.Source
		if source == "" {
			source = model.SourceNone
		}

		if _, err := stmt.ExecContext(ctx,
			ids[i],
			runID,
			row.Record.CalendarDate(),
			row.Record.Amount.StringFixed(2),
			row.Record.Description,
			normalized,
			row.Record.AccountID,
			category,
			subcategory,
			payoree,
			categoryID,
			payoreeID,
			string(source),
			row.Result.Confidence,
			categorizationError,
		); err != nil {
			return nil, fmt.Errorf("failed to insert transaction %d: %w", i, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transactions: %w", classify(err))
	}
	return ids, nil
}

func committedCategory(result *model.CategorizationResult) (category, subcategory string, id sql.NullInt64) {
	switch {
	case result.Subcategory != nil:
		id = sql.NullInt64{Int64: result.Subcategory.ID, Valid: true}
		subcategory = result.Subcategory.Name
		if result.Category != nil {
			category = result.Category.Name
		}
	case result.Category != nil:
		id = sql.NullInt64{Int64: result.Category.ID, Valid: true}
		category = result.Category.Name
	}
	return category, subcategory, id
}

func committedPayoree(result *model.CategorizationResult) (string, sql.NullInt64) {
	if result.Payoree == nil {
		return "", sql.NullInt64{}
	}
	return result.Payoree.Name, sql.NullInt64{Int64: result.Payoree.ID, Valid: true}
}

// GetHistory returns committed transactions matching filter, newest first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, filter service.HistoryFilter) ([]model.HistoricalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		if err := validateDateRange(*filter.StartDate, *filter.EndDate); err != nil {
			return nil, err
		}
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	switch {
	case filter.Sign < 0:
		where = append(where, "CAST(amount AS REAL) < 0")
	case filter.Sign > 0:
		where = append(where, "CAST(amount AS REAL) > 0")
	}

	query := `SELECT id, date, amount, description, normalized_description, account_id,
		category, subcategory, payoree FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var history []model.HistoricalRecord
	for rows.Next() {
		var (
			h      model.HistoricalRecord
			date   string
			amount string
		)
		if err := rows.Scan(&h.ID, &date, &amount, &h.Record.Description, &h.NormalizedDescription,
			&h.Record.AccountID, &h.Category, &h.Subcategory, &h.Payoree); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if h.Record.Date, h.Record.Amount, err = parseDateAmount(date, amount); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", h.ID, err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", classify(err))
	}
	return history, nil
}

// GetFingerprints returns duplicate-detection fingerprints for committed
// transactions dated within [start, end].
func (s *SQLiteStorage) GetFingerprints(ctx context.Context, start, end time.Time) ([]model.Fingerprint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, amount, normalized_description, account_id
		FROM transactions
		WHERE date BETWEEN ? AND ?`,
		start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var fingerprints []model.Fingerprint
	for rows.Next() {
		var (
			fp     model.Fingerprint
			amount string
		)
		if err := rows.Scan(&fp.Date, &amount, &fp.NormalizedDescription, &fp.AccountID); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		if fp.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: amount %q: %w", common.ErrDatabaseCorrupted, amount, err)
		}
		fingerprints = append(fingerprints, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprints: %w", classify(err))
	}
	return fingerprints, nil
}

// CountTransactions returns the number of committed transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", classify(err))
	}
	return count, nil
}

func parseDateAmount(date, amount string) (time.Time, decimal.Decimal, error) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return time.Time{}, decimal.Zero, fmt.Errorf("%w: date %q: %w", common.ErrDatabaseCorrupted, date, err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return time.Time{}, decimal.Zero, fmt.Errorf("%w: amount %q: %w", common.ErrDatabaseCorrupted, amount, err)
	}
	return d, a, nil
}
