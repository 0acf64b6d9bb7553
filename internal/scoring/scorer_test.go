package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/sift/internal/model"
)

func TestScorer_Score(t *testing.T) {
	tests := []struct {
		name           string
		evidence       Evidence
		wantConfidence float64
		wantSource     model.Source
	}{
		{
			name:           "learned floors at 0.95",
			evidence:       Evidence{Category: "Dining", Source: model.SourceLearned, LearnedConfidence: 0.5},
			wantConfidence: 0.95,
			wantSource:     model.SourceLearned,
		},
		{
			name:           "learned full confidence",
			evidence:       Evidence{Category: "Dining", Source: model.SourceLearned, LearnedConfidence: 1.0},
			wantConfidence: 1.0,
			wantSource:     model.SourceLearned,
		},
		{
			name:           "learned capped at 1",
			evidence:       Evidence{Category: "Dining", Source: model.SourceLearned, LearnedConfidence: 3},
			wantConfidence: 1.0,
			wantSource:     model.SourceLearned,
		},
		{
			name:           "keyword is fixed",
			evidence:       Evidence{Category: "Subscriptions", Source: model.SourceKeyword},
			wantConfidence: 0.80,
			wantSource:     model.SourceKeyword,
		},
		{
			name:           "similarity at threshold",
			evidence:       Evidence{Category: "Dining", Source: model.SourceSimilarity, BestScore: 85, Threshold: 85},
			wantConfidence: 0.45,
			wantSource:     model.SourceSimilarity,
		},
		{
			name:           "similarity perfect",
			evidence:       Evidence{Category: "Dining", Source: model.SourceSimilarity, BestScore: 100, Threshold: 85},
			wantConfidence: 0.95,
			wantSource:     model.SourceSimilarity,
		},
		{
			name:           "similarity midway with agreement",
			evidence:       Evidence{Category: "Dining", Source: model.SourceSimilarity, BestScore: 92.5, Threshold: 85, Agreement: true},
			wantConfidence: 0.75,
			wantSource:     model.SourceSimilarity,
		},
		{
			name:           "agreement capped at ceiling",
			evidence:       Evidence{Category: "Dining", Source: model.SourceSimilarity, BestScore: 100, Threshold: 85, Agreement: true},
			wantConfidence: 0.95,
			wantSource:     model.SourceSimilarity,
		},
		{
			name:           "subcategory alone is a suggestion",
			evidence:       Evidence{Subcategory: "Coffee", Source: model.SourceKeyword},
			wantConfidence: 0.80,
			wantSource:     model.SourceKeyword,
		},
		{
			name:           "no category means no suggestion",
			evidence:       Evidence{Source: model.SourceKeyword, Payoree: "Netflix"},
			wantConfidence: 0,
			wantSource:     model.SourceNone,
		},
		{
			name:           "unknown source",
			evidence:       Evidence{Category: "Dining", Source: "oracle"},
			wantConfidence: 0,
			wantSource:     model.SourceNone,
		},
	}

	s := NewScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.evidence)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, got.Confidence == 0, got.Empty())
		})
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	thresholds := []float64{0, 50, 85, 99.9, 100, 150}
	scores := []float64{-10, 0, 50, 85, 90, 100, 200, math.NaN()}

	for _, thr := range thresholds {
		for _, best := range scores {
			for _, agree := range []bool{false, true} {
				c := Similarity(best, thr, agree)
				assert.GreaterOrEqual(t, c, SimilarityFloor)
				assert.LessOrEqual(t, c, SimilarityCeiling)
			}
		}
	}
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	s := NewScorer()
	sources := []model.Source{model.SourceCSV, model.SourceLearned, model.SourceKeyword, model.SourceSimilarity, model.SourceNone}
	values := []float64{-1, 0, 0.5, 1, 2, math.Inf(1), math.NaN()}

	for _, src := range sources {
		for _, v := range values {
			got := s.Score(Evidence{
				Category:          "X",
				Source:            src,
				LearnedConfidence: v,
				BestScore:         v * 100,
				Threshold:         85,
				Agreement:         v > 0.5,
			})
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		}
	}
}

func TestNone(t *testing.T) {
	n := None()
	assert.True(t, n.Empty())
	assert.Equal(t, 0.0, n.Confidence)
	assert.Equal(t, model.SourceNone, n.Source)
	assert.Equal(t, model.BandLow, model.BandFor(n.Confidence))
}
