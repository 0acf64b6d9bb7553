package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/pattern"
	"github.com/Veraticus/sift/internal/scoring"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/similarity"
)

// LearnedStrategy looks the row's signature up in the learned-association store.
type LearnedStrategy struct {
	patterns service.PatternReader
	retry    service.RetryOptions
}

// NewLearnedStrategy creates a learned strategy. Transient store failures get one retry.
func NewLearnedStrategy(patterns service.PatternReader, retry service.RetryOptions) *LearnedStrategy {
	return &LearnedStrategy{patterns: patterns, retry: retry}
}

// Source implements Strategy.
func (s *LearnedStrategy) Source() model.Source {
	return model.SourceLearned
}

// Evaluate implements Strategy.
func (s *LearnedStrategy) Evaluate(ctx context.Context, row Row) (scoring.Evidence, bool, error) {
	var assoc *model.LearnedAssociation
	err := common.WithRetry(ctx, func() error {
		var lookupErr error
		assoc, lookupErr = s.patterns.Lookup(ctx, row.Signature)
		return lookupErr
	}, s.retry)
	if errors.Is(err, common.ErrNotFound) {
		return scoring.Evidence{}, false, nil
	}
	if err != nil {
		return scoring.Evidence{}, false, fmt.Errorf("failed to look up learned association: %w", err)
	}

	return scoring.Evidence{
		Category:          assoc.Category,
		Subcategory:       assoc.Subcategory,
		Payoree:           assoc.Payoree,
		Source:            model.SourceLearned,
		LearnedConfidence: assoc.Confidence,
	}, true, nil
}

// KeywordStrategy matches the normalized description against a rule set.
type KeywordStrategy struct {
	rules pattern.Matcher
}

// NewKeywordStrategy creates a keyword strategy.
func NewKeywordStrategy(rules pattern.Matcher) *KeywordStrategy {
	return &KeywordStrategy{rules: rules}
}

// Source implements Strategy.
func (s *KeywordStrategy) Source() model.Source {
	return model.SourceKeyword
}

// Evaluate implements Strategy.
func (s *KeywordStrategy) Evaluate(_ context.Context, row Row) (scoring.Evidence, bool, error) {
	m, ok := s.rules.Match(row.Normalized)
	if !ok {
		return scoring.Evidence{}, false, nil
	}
	return scoring.Evidence{
		Category:    m.Rule.Category,
		Subcategory: m.Rule.Subcategory,
		Payoree:     m.Rule.Payoree,
		Source:      model.SourceKeyword,
	}, true, nil
}

// SimilarityStrategy borrows the categorization of the closest historical records.
type SimilarityStrategy struct {
	matcher *similarity.Matcher
}

// NewSimilarityStrategy creates a similarity strategy.
func NewSimilarityStrategy(matcher *similarity.Matcher) *SimilarityStrategy {
	return &SimilarityStrategy{matcher: matcher}
}

// Source implements Strategy.
func (s *SimilarityStrategy) Source() model.Source {
	return model.SourceSimilarity
}

// Evaluate implements Strategy. History without a category is ignored.
func (s *SimilarityStrategy) Evaluate(_ context.Context, row Row) (scoring.Evidence, bool, error) {
	threshold := s.matcher.Threshold()
	found := s.matcher.FindSimilar(row.Normalized, row.Corpus, threshold)

	candidates := found[:0:0]
	for _, c := range found {
		if c.Record.Category != "" || c.Record.Subcategory != "" {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return scoring.Evidence{}, false, nil
	}

	best := candidates[0]
	return scoring.Evidence{
		Category:    best.Record.Category,
		Subcategory: best.Record.Subcategory,
		Payoree:     best.Record.Payoree,
		Source:      model.SourceSimilarity,
		BestScore:   best.Score,
		Threshold:   threshold,
		Agreement:   s.matcher.Agreement(candidates),
	}, true, nil
}
