package similarity

import (
	"sort"

	"github.com/Veraticus/sift/internal/model"
)

// DefaultThreshold is the minimum score a historical record needs to be a candidate.
const DefaultThreshold = 85.0

// DefaultAgreementTopK is how many leading candidates must share a category for the agreement signal.
const DefaultAgreementTopK = 3

// Candidate is a historical record that cleared the threshold.
type Candidate struct {
	Record model.HistoricalRecord
	Score  float64
}

// Options configures a Matcher.
type Options struct {
	// Threshold applies when FindSimilar is called with a non-positive threshold.
	Threshold float64
	// MaxCandidates caps the ranked list; zero means no cap.
	MaxCandidates int
	// AgreementTopK is the number of leading candidates compared by Agreement.
	AgreementTopK int
}

// DefaultOptions returns the default matcher configuration.
func DefaultOptions() Options {
	return Options{
		Threshold:     DefaultThreshold,
		MaxCandidates: 10,
		AgreementTopK: DefaultAgreementTopK,
	}
}

// Matcher finds similar historical transactions. It holds no mutable state.
type Matcher struct {
	opts Options
}

// NewMatcher creates a matcher, filling unset options with defaults.
func NewMatcher(opts Options) *Matcher {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.AgreementTopK <= 0 {
		opts.AgreementTopK = DefaultAgreementTopK
	}
	if opts.MaxCandidates < 0 {
		opts.MaxCandidates = 0
	}
	return &Matcher{opts: opts}
}

// Threshold returns the configured default threshold.
func (m *Matcher) Threshold() float64 {
	return m.opts.Threshold
}

// FindSimilar scores every record in corpus against normalized and returns those
// at or above threshold, best first. Equal scores rank the more recent record
// first, then by ID.
func (m *Matcher) FindSimilar(normalized string, corpus []model.HistoricalRecord, threshold float64) []Candidate {
	if threshold <= 0 {
		threshold = m.opts.Threshold
	}

	query := tokenize(normalized)
	if len(query) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, rec := range corpus {
		text := rec.NormalizedDescription
		if text == "" {
			continue
		}
		score := scoreSets(query, tokenize(text))
		if score >= threshold {
			candidates = append(candidates, Candidate{Record: rec, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Record.Record.Date.Equal(b.Record.Record.Date) {
			return a.Record.Record.Date.After(b.Record.Record.Date)
		}
		return a.Record.ID < b.Record.ID
	})

	if m.opts.MaxCandidates > 0 && len(candidates) > m.opts.MaxCandidates {
		candidates = candidates[:m.opts.MaxCandidates]
	}

	return candidates
}

// Agreement reports whether the leading candidates all carry the same category.
// At least two candidates are required.
func (m *Matcher) Agreement(candidates []Candidate) bool {
	return Agreement(candidates, m.opts.AgreementTopK)
}

// Agreement reports whether the top k candidates (or all, if fewer) share a
// non-empty category. History with only a subcategory is compared by that
// subcategory. A single candidate never agrees with itself.
func Agreement(candidates []Candidate, k int) bool {
	n := min(k, len(candidates))
	if n < 2 {
		return false
	}

	category := categoryOf(candidates[0].Record)
	if category == "" {
		return false
	}
	for _, c := range candidates[1:n] {
		if categoryOf(c.Record) != category {
			return false
		}
	}
	return true
}

func categoryOf(r model.HistoricalRecord) string {
	if r.Category != "" {
		return r.Category
	}
	return r.Subcategory
}
