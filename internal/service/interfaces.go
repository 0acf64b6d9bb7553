// Package service defines the contracts between the engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/sift/internal/model"
)

// PatternReader is the read side of the learned-association store.
type PatternReader interface {
	// Lookup returns the association for signature, or common.ErrNotFound.
	Lookup(ctx context.Context, signature string) (*model.LearnedAssociation, error)
}

// PatternStore persists user-confirmed associations.
// Upsert is called only by the human correction workflow, never by categorization.
type PatternStore interface {
	PatternReader
	// Upsert overwrites any prior association for signature with confidence 1.0
	// and a fresh confirmation timestamp.
	Upsert(ctx context.Context, signature, category, subcategory, payoree string) (*model.LearnedAssociation, error)
}

// Catalog resolves names to canonical entities.
// A returned error always means a backend failure; absence is LookupNotFound.
type Catalog interface {
	LookupCategory(ctx context.Context, name string) (model.Lookup[model.Category], error)
	LookupPayoree(ctx context.Context, name string) (model.Lookup[model.Payoree], error)
}

// HistoryFilter narrows the historical corpus.
type HistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	// Sign restricts by amount sign: -1 debits, 1 credits, 0 both.
	Sign  int
	Limit int
}

// HistorySource provides previously committed transactions.
type HistorySource interface {
	GetHistory(ctx context.Context, filter HistoryFilter) ([]model.HistoricalRecord, error)
	GetFingerprints(ctx context.Context, start, end time.Time) ([]model.Fingerprint, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
