// Package scoring turns strategy evidence into a calibrated confidence value.
package scoring

import (
	"math"

	"github.com/Veraticus/sift/internal/model"
)

// Calibration constants. These are a starting calibration, tuned against the
// engine's property tests rather than reproduced from an exact formula.
const (
	LearnedFloor      = 0.95
	KeywordConfidence = 0.80
	SimilarityFloor   = 0.45
	SimilaritySpan    = 0.50
	SimilarityCeiling = 0.95
	AgreementBonus    = 0.05
)

// Evidence is what a strategy found for one row.
type Evidence struct {
	Category    string
	Subcategory string
	Payoree     string
	Source      model.Source
	// LearnedConfidence is the stored confidence of a learned association.
	LearnedConfidence float64
	// BestScore and Threshold describe a similarity match on the 0-100 scale.
	BestScore float64
	Threshold float64
	Agreement bool
}

// Suggestion is scored evidence.
type Suggestion struct {
	Category    string
	Subcategory string
	Payoree     string
	Source      model.Source
	Confidence  float64
}

// Empty reports whether the suggestion names no category.
func (s Suggestion) Empty() bool {
	return s.Category == "" && s.Subcategory == ""
}

// None is the suggestion produced when no strategy cleared its bar.
func None() Suggestion {
	return Suggestion{Source: model.SourceNone}
}

// Scorer applies the per-source confidence formulas.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score converts evidence into a suggestion. The confidence is always within
// [0, 1] and is zero exactly when the suggestion is empty.
func (s *Scorer) Score(e Evidence) Suggestion {
	if e.Category == "" && e.Subcategory == "" {
		return None()
	}

	var confidence float64
	switch e.Source {
	case model.SourceLearned:
		confidence = Learned(e.LearnedConfidence)
	case model.SourceKeyword:
		confidence = KeywordConfidence
	case model.SourceSimilarity:
		confidence = Similarity(e.BestScore, e.Threshold, e.Agreement)
	case model.SourceCSV:
		confidence = 1.0
	default:
		return None()
	}

	if confidence <= 0 {
		return None()
	}

	return Suggestion{
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Payoree:     e.Payoree,
		Source:      e.Source,
		Confidence:  clamp(confidence, 0, 1),
	}
}

// Learned floors a stored association confidence at LearnedFloor.
func Learned(stored float64) float64 {
	return clamp(math.Max(LearnedFloor, stored), LearnedFloor, 1)
}

// Similarity maps the best candidate score onto [SimilarityFloor, SimilarityCeiling].
// Agreement among the leading candidates adds AgreementBonus, still capped at the ceiling.
func Similarity(best, threshold float64, agreement bool) float64 {
	var confidence float64
	if threshold >= 100 {
		confidence = SimilarityCeiling
	} else {
		confidence = SimilarityFloor + SimilaritySpan*(best-threshold)/(100-threshold)
	}
	confidence = clamp(confidence, SimilarityFloor, SimilarityCeiling)

	if agreement {
		confidence = math.Min(confidence+AgreementBonus, SimilarityCeiling)
	}
	return confidence
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
