package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/learned"
	"github.com/Veraticus/sift/internal/model"
)

// confirmedAtLayout is fixed-width UTC so confirmed_at compares correctly as text.
const confirmedAtLayout = "2006-01-02T15:04:05.000000000Z"

const learnedColumns = "signature, category, subcategory, payoree, confidence, confirmed_at"

// Lookup returns the learned association for signature, or common.ErrNotFound.
func (s *SQLiteStorage) Lookup(ctx context.Context, signature string) (*model.LearnedAssociation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(signature, "signature"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+learnedColumns+" FROM learned_associations WHERE signature = ?", signature)
	assoc, err := scanLearned(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("learned association %q: %w", signature, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up learned association: %w", classify(err))
	}
	return assoc, nil
}

// Upsert records a user confirmation with confidence 1.0 and the current time.
func (s *SQLiteStorage) Upsert(ctx context.Context, signature, category, subcategory, payoree string) (*model.LearnedAssociation, error) {
	return s.Confirm(ctx, model.LearnedAssociation{
		Signature:   signature,
		Category:    category,
		Subcategory: subcategory,
		Payoree:     payoree,
		ConfirmedAt: s.now(),
	})
}

// Confirm stores assoc unless a newer confirmation for the same signature is
// already present, in which case the stored one is returned unchanged.
func (s *SQLiteStorage) Confirm(ctx context.Context, assoc model.LearnedAssociation) (*model.LearnedAssociation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := learned.Validate(assoc.Signature, assoc.Category, assoc.Subcategory); err != nil {
		return nil, err
	}
	if assoc.ConfirmedAt.IsZero() {
		assoc.ConfirmedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO learned_associations (`+learnedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			payoree = excluded.payoree,
			confidence = excluded.confidence,
			confirmed_at = excluded.confirmed_at
		WHERE excluded.confirmed_at >= learned_associations.confirmed_at`,
		assoc.Signature,
		strings.TrimSpace(assoc.Category),
		strings.TrimSpace(assoc.Subcategory),
		strings.TrimSpace(assoc.Payoree),
		model.LearnedConfidence,
		formatConfirmedAt(assoc.ConfirmedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save learned association: %w", classify(err))
	}

	stored, err := scanLearned(tx.QueryRowContext(ctx,
		"SELECT "+learnedColumns+" FROM learned_associations WHERE signature = ?", assoc.Signature))
	if err != nil {
		return nil, fmt.Errorf("failed to reload learned association: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit learned association: %w", classify(err))
	}
	return stored, nil
}

// ListLearned returns every learned association ordered by signature.
func (s *SQLiteStorage) ListLearned(ctx context.Context) ([]model.LearnedAssociation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+learnedColumns+" FROM learned_associations ORDER BY signature")
	if err != nil {
		return nil, fmt.Errorf("failed to list learned associations: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var associations []model.LearnedAssociation
	for rows.Next() {
		assoc, err := scanLearned(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learned association: %w", err)
		}
		associations = append(associations, *assoc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate learned associations: %w", classify(err))
	}
	return associations, nil
}

// LoadLearnedSnapshot reads every association into an immutable snapshot that
// a batch can consult without further database round trips.
func (s *SQLiteStorage) LoadLearnedSnapshot(ctx context.Context) (*learned.Snapshot, error) {
	associations, err := s.ListLearned(ctx)
	if err != nil {
		return nil, err
	}
	return learned.NewSnapshot(associations), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLearned(row rowScanner) (*model.LearnedAssociation, error) {
	var (
		assoc       model.LearnedAssociation
		confirmedAt string
	)
	if err := row.Scan(&assoc.Signature, &assoc.Category, &assoc.Subcategory, &assoc.Payoree,
		&assoc.Confidence, &confirmedAt); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(confirmedAtLayout, confirmedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: confirmed_at %q: %w", common.ErrDatabaseCorrupted, confirmedAt, err)
	}
	assoc.ConfirmedAt = parsed
	return &assoc, nil
}

func formatConfirmedAt(t time.Time) string {
	return t.UTC().Format(confirmedAtLayout)
}
