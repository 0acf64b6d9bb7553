// Package model defines the core domain models used throughout the application.
package model

import "slices"

// Source indicates which signal produced a category suggestion.
type Source string

// Suggestion sources.
const (
	SourceCSV        Source = "csv"
	SourceLearned    Source = "learned"
	SourceKeyword    Source = "keyword"
	SourceSimilarity Source = "similarity"
	SourceNone       Source = "none"
)

// Band is a coarse display bucket for a confidence value.
type Band string

// Confidence bands.
const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Band thresholds.
const (
	HighConfidence   = 0.85
	MediumConfidence = 0.5
)

// BandFor buckets a raw confidence value.
func BandFor(confidence float64) Band {
	switch {
	case confidence >= HighConfidence:
		return BandHigh
	case confidence >= MediumConfidence:
		return BandMedium
	default:
		return BandLow
	}
}

// CategorizationResult is the per-row outcome of the engine.
//
// CategorySuggestion, SubcategorySuggestion and PayoreeSuggestion are names.
// Category, Subcategory and Payoree are the resolved catalog entities and stay nil
// when resolution failed; the reason is then recorded in Errors.
type CategorizationResult struct {
	Category              *Category
	Subcategory           *Category
	Payoree               *Payoree
	CategorySuggestion    string
	SubcategorySuggestion string
	PayoreeSuggestion     string
	Signature             string
	NormalizedDescription string
	Source                Source
	Errors                []ErrorCode
	Confidence            float64
}

// AddError appends a code, keeping first-seen order and skipping repeats.
func (r *CategorizationResult) AddError(code ErrorCode) {
	if slices.Contains(r.Errors, code) {
		return
	}
	r.Errors = append(r.Errors, code)
}

// HasError reports whether the code was recorded.
func (r *CategorizationResult) HasError(code ErrorCode) bool {
	return slices.Contains(r.Errors, code)
}

// CategorizationError returns the first recorded code, or "" when there is none.
// This is the single value stored alongside a committed transaction.
func (r *CategorizationResult) CategorizationError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return string(r.Errors[0])
}

// Issues pairs every recorded code with its description.
func (r *CategorizationResult) Issues() []Issue {
	issues := make([]Issue, 0, len(r.Errors))
	for _, code := range r.Errors {
		issues = append(issues, Issue{Code: code, Description: code.Description()})
	}
	return issues
}

// Band returns the confidence band of the result.
func (r *CategorizationResult) Band() Band {
	return BandFor(r.Confidence)
}
