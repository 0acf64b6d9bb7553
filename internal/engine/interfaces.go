package engine

import (
	"context"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/scoring"
)

// Row is the per-record input shared by every strategy.
type Row struct {
	Record     model.TransactionRecord
	Normalized string
	Signature  string
	// Corpus is the pre-filtered history window for this record.
	Corpus []model.HistoricalRecord
}

// Strategy is one matcher in the priority-ordered suggestion pipeline.
type Strategy interface {
	// Source identifies the signal this strategy produces.
	Source() model.Source
	// Evaluate returns evidence and true when the strategy has a suggestion.
	// A returned error is a backend failure, never a "no match".
	Evaluate(ctx context.Context, row Row) (scoring.Evidence, bool, error)
}
