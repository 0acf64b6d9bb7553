// Package engine orchestrates transaction categorization.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/lookup"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
	"github.com/Veraticus/sift/internal/pattern"
	"github.com/Veraticus/sift/internal/scoring"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/similarity"
)

// Dependencies are the collaborators of an Orchestrator. Patterns, Rules and
// Matcher are optional; a nil one disables its strategy.
type Dependencies struct {
	Patterns service.PatternReader
	Rules    *pattern.RuleSet
	Matcher  *similarity.Matcher
	Catalog  service.Catalog
}

// Config holds engine configuration.
type Config struct {
	Retry service.RetryOptions
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Retry: common.PersistenceRetryOptions(),
	}
}

// Orchestrator categorizes one record at a time. It performs no writes and is
// safe for concurrent use when its collaborators are.
type Orchestrator struct {
	lookup     *lookup.Service
	scorer     *scoring.Scorer
	strategies []Strategy
}

// New builds an orchestrator with the strategies learned, keyword, similarity in
// that order.
func New(deps Dependencies, cfg Config) (*Orchestrator, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", common.ErrMissingConfig)
	}

	var strategies []Strategy
	if deps.Patterns != nil {
		strategies = append(strategies, NewLearnedStrategy(deps.Patterns, cfg.Retry))
	}
	if deps.Rules != nil {
		strategies = append(strategies, NewKeywordStrategy(deps.Rules))
	}
	if deps.Matcher != nil {
		strategies = append(strategies, NewSimilarityStrategy(deps.Matcher))
	}

	return NewWithStrategies(lookup.NewService(deps.Catalog, lookup.WithRetryOptions(cfg.Retry)), strategies...), nil
}

// NewWithStrategies builds an orchestrator from an explicit strategy list.
func NewWithStrategies(lookupService *lookup.Service, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{
		lookup:     lookupService,
		scorer:     scoring.NewScorer(),
		strategies: strategies,
	}
}

// Strategies returns the sources of the configured strategies in evaluation order.
func (o *Orchestrator) Strategies() []model.Source {
	sources := make([]model.Source, len(o.strategies))
	for i, s := range o.strategies {
		sources[i] = s.Source()
	}
	return sources
}

// Categorize assigns a category, subcategory and payoree to rec.
//
// Explicit csv names are resolved first and, when they resolve, are final for
// their field. Otherwise the strategies run in order and the first suggestion
// wins. Lookup failures are recorded on the result, never returned. The only
// errors are ErrInvalidRecord and a *RowError carrying SYSTEM_ERROR.
func (o *Orchestrator) Categorize(ctx context.Context, rec model.TransactionRecord, corpus []model.HistoricalRecord) (*model.CategorizationResult, error) {
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}

	normalized := normalize.Normalize(rec.Description)
	row := Row{
		Record:     rec,
		Normalized: normalized,
		Signature:  normalize.ExtractMerchant(normalized),
		Corpus:     corpus,
	}

	result := &model.CategorizationResult{
		NormalizedDescription: row.Normalized,
		Signature:             row.Signature,
		Source:                model.SourceNone,
	}

	categoryDone, err := o.applyCSVCategory(ctx, rec, result)
	if err != nil {
		return nil, err
	}
	payoreeDone, err := o.applyCSVPayoree(ctx, rec, result)
	if err != nil {
		return nil, err
	}
	if categoryDone && payoreeDone {
		return result, nil
	}

	suggestion, err := o.suggest(ctx, row)
	if err != nil {
		return nil, o.rowError(rec, err)
	}

	if !categoryDone {
		if err := o.applySuggestedCategory(ctx, rec, suggestion, result); err != nil {
			return nil, err
		}
	}
	if !payoreeDone {
		if err := o.applySuggestedPayoree(ctx, rec, suggestion, result); err != nil {
			return nil, err
		}
	}

	slog.Debug("categorized transaction",
		"signature", result.Signature,
		"source", result.Source,
		"confidence", result.Confidence,
		"errors", result.Errors)

	return result, nil
}

func (o *Orchestrator) suggest(ctx context.Context, row Row) (scoring.Suggestion, error) {
	for _, strategy := range o.strategies {
		evidence, ok, err := strategy.Evaluate(ctx, row)
		if err != nil {
			return scoring.Suggestion{}, fmt.Errorf("%s strategy: %w", strategy.Source(), err)
		}
		if !ok {
			continue
		}
		if s := o.scorer.Score(evidence); !s.Empty() {
			return s, nil
		}
	}
	return scoring.None(), nil
}

func (o *Orchestrator) applyCSVCategory(ctx context.Context, rec model.TransactionRecord, result *model.CategorizationResult) (bool, error) {
	if !rec.HasCSVCategory() {
		return false, nil
	}

	name, parent := rec.CSVSubcategory, rec.CSVCategory
	if name == "" {
		name, parent = rec.CSVCategory, ""
	}

	cat, code := o.lookup.ResolveSubcategory(ctx, name, parent, lookup.OriginCSV)
	switch code {
	case model.CodeNone:
		applyCategory(result, cat)
		result.CategorySuggestion = result.Category.Name
		if result.Subcategory != nil {
			result.SubcategorySuggestion = result.Subcategory.Name
		}
		result.Source = model.SourceCSV
		result.Confidence = 1.0
		return true, nil
	case model.CodeSystemError:
		return false, o.systemError(rec, "csv category")
	default:
		result.AddError(code)
		return false, nil
	}
}

func (o *Orchestrator) applyCSVPayoree(ctx context.Context, rec model.TransactionRecord, result *model.CategorizationResult) (bool, error) {
	if !rec.HasCSVPayoree() {
		return false, nil
	}

	p, code := o.lookup.ResolvePayoree(ctx, rec.CSVPayoree, lookup.OriginCSV)
	switch code {
	case model.CodeNone:
		result.Payoree = p
		result.PayoreeSuggestion = p.Name
		return true, nil
	case model.CodeSystemError:
		return false, o.systemError(rec, "csv payoree")
	default:
		result.AddError(code)
		return false, nil
	}
}

func (o *Orchestrator) applySuggestedCategory(ctx context.Context, rec model.TransactionRecord, s scoring.Suggestion, result *model.CategorizationResult) error {
	if s.Empty() {
		result.Source = model.SourceNone
		result.Confidence = 0
		result.AddError(model.CodeAINoSubcategorySuggestion)
		return nil
	}

	result.CategorySuggestion = s.Category
	result.SubcategorySuggestion = s.Subcategory
	if result.CategorySuggestion == "" {
		result.CategorySuggestion = s.Subcategory
	}
	result.Source = s.Source
	result.Confidence = s.Confidence

	name, parent := s.Subcategory, s.Category
	if name == "" {
		name, parent = s.Category, ""
	}

	cat, code := o.lookup.ResolveSubcategory(ctx, name, parent, lookup.OriginAI)
	switch code {
	case model.CodeNone:
		applyCategory(result, cat)
		return nil
	case model.CodeSystemError:
		return o.systemError(rec, "suggested category")
	}
	result.AddError(code)

	// A stale subcategory still leaves the parent category usable.
	if name != s.Category && s.Category != "" {
		parent, parentCode := o.lookup.ResolveCategory(ctx, s.Category, lookup.OriginAI)
		switch parentCode {
		case model.CodeNone:
			applyCategory(result, parent)
		case model.CodeSystemError:
			return o.systemError(rec, "suggested category")
		}
	}
	return nil
}

func (o *Orchestrator) applySuggestedPayoree(ctx context.Context, rec model.TransactionRecord, s scoring.Suggestion, result *model.CategorizationResult) error {
	if s.Payoree == "" {
		result.AddError(model.CodeAINoPayoreeSuggestion)
		return nil
	}

	result.PayoreeSuggestion = s.Payoree
	p, code := o.lookup.ResolvePayoree(ctx, s.Payoree, lookup.OriginAI)
	switch code {
	case model.CodeNone:
		result.Payoree = p
	case model.CodeSystemError:
		return o.systemError(rec, "suggested payoree")
	default:
		result.AddError(code)
	}
	return nil
}

// applyCategory sets Category and, for a subcategory, Subcategory and its parent.
func applyCategory(result *model.CategorizationResult, cat *model.Category) {
	if cat.Parent != nil {
		result.Category = cat.Parent
		result.Subcategory = cat
		return
	}
	result.Category = cat
}

func (o *Orchestrator) systemError(rec model.TransactionRecord, what string) error {
	return &RowError{
		Record: rec,
		Code:   model.CodeSystemError,
		Err:    fmt.Errorf("%w: %s lookup failed", common.ErrSystem, what),
	}
}

func (o *Orchestrator) rowError(rec model.TransactionRecord, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RowError{
		Record: rec,
		Code:   model.CodeSystemError,
		Err:    fmt.Errorf("%w: %w", common.ErrSystem, err),
	}
}
