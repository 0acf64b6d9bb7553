package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/testutil"
)

func history(id, date, amount, description, category string) model.HistoricalRecord {
	rec := testutil.NewRecord(description).On(date).For(amount).Build()
	return testutil.History(id, rec, category, "", "")
}

func TestFindSimilar(t *testing.T) {
	corpus := []model.HistoricalRecord{
		history("1", "2024-12-01", "-23.10", "AMAZON MKTPLACE PMTS", "Shopping"),
		history("2", "2024-12-15", "-12.99", "AMAZON.COM*ABC123", "Shopping"),
		history("3", "2024-12-20", "-4.50", "STARBUCKS #555", "Dining"),
		history("4", "2024-12-22", "-60.00", "SHELL OIL 5744", "Gas"),
		history("5", "2024-12-23", "-9.00", "", "Misc"),
	}

	m := NewMatcher(DefaultOptions())

	got := m.FindSimilar("AMAZON COM", corpus, 85)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Record.ID, "equal scores rank the newer record first")
	assert.Equal(t, "1", got[1].Record.ID)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.Score, 85.0)
	}

	assert.Empty(t, m.FindSimilar("UNKNOWN VENDOR XYZ", corpus, 85))
	assert.Empty(t, m.FindSimilar("", corpus, 85))
	assert.Empty(t, m.FindSimilar("AMAZON", nil, 85))
}

func TestFindSimilar_ThresholdIsInclusive(t *testing.T) {
	corpus := []model.HistoricalRecord{
		history("1", "2024-12-01", "-5.00", "SAFEWAY STORE", "Groceries"),
	}
	m := NewMatcher(DefaultOptions())

	score := Score("SAFEWAY FUEL", "SAFEWAY STORE")
	assert.Len(t, m.FindSimilar("SAFEWAY FUEL", corpus, score), 1)
	assert.Empty(t, m.FindSimilar("SAFEWAY FUEL", corpus, score+0.01))
}

func TestFindSimilar_DefaultThreshold(t *testing.T) {
	corpus := []model.HistoricalRecord{
		history("1", "2024-12-01", "-5.00", "SAFEWAY STORE", "Groceries"),
	}
	m := NewMatcher(Options{})
	assert.Equal(t, DefaultThreshold, m.Threshold())
	assert.Empty(t, m.FindSimilar("SAFEWAY FUEL", corpus, 0))
}

func TestFindSimilar_MaxCandidates(t *testing.T) {
	var corpus []model.HistoricalRecord
	for i, day := range []string{"01", "02", "03", "04", "05"} {
		corpus = append(corpus, history(string(rune('a'+i)), "2024-12-"+day, "-4.50", "COFFEE SHOP", "Dining"))
	}

	m := NewMatcher(Options{MaxCandidates: 2})
	got := m.FindSimilar("COFFEE SHOP", corpus, 85)
	require.Len(t, got, 2)
	assert.Equal(t, "e", got[0].Record.ID)
	assert.Equal(t, "d", got[1].Record.ID)
}

func TestAgreement(t *testing.T) {
	c := func(category string) Candidate {
		return Candidate{Record: model.HistoricalRecord{Category: category}, Score: 90}
	}
	sub := func(subcategory string) Candidate {
		return Candidate{Record: model.HistoricalRecord{Subcategory: subcategory}, Score: 90}
	}

	tests := []struct {
		name       string
		candidates []Candidate
		k          int
		want       bool
	}{
		{name: "none", candidates: nil, k: 3, want: false},
		{name: "single candidate", candidates: []Candidate{c("Dining")}, k: 3, want: false},
		{name: "two agree", candidates: []Candidate{c("Dining"), c("Dining")}, k: 3, want: true},
		{name: "top three agree", candidates: []Candidate{c("Dining"), c("Dining"), c("Dining"), c("Gas")}, k: 3, want: true},
		{name: "top three disagree", candidates: []Candidate{c("Dining"), c("Gas"), c("Dining")}, k: 3, want: false},
		{name: "empty category", candidates: []Candidate{c(""), c("")}, k: 3, want: false},
		{name: "subcategory only agree", candidates: []Candidate{sub("Coffee"), sub("Coffee"), sub("Coffee")}, k: 3, want: true},
		{name: "subcategory only disagree", candidates: []Candidate{sub("Coffee"), sub("Bakery")}, k: 3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Agreement(tt.candidates, tt.k))
		})
	}
}

func TestCorpus_Window(t *testing.T) {
	records := []model.HistoricalRecord{
		history("old", "2023-01-01", "-5.00", "COFFEE SHOP", "Dining"),
		history("recent-debit", "2024-12-20", "-5.00", "COFFEE SHOP", "Dining"),
		history("recent-credit", "2024-12-21", "5.00", "COFFEE SHOP REFUND", "Dining"),
		history("future", "2025-01-10", "-5.00", "COFFEE SHOP", "Dining"),
	}

	corpus := NewCorpus(records, 90*24*time.Hour)
	assert.Equal(t, 4, corpus.Len())

	debit := testutil.NewRecord("COFFEE SHOP").On("2025-01-05").For("-4.50").Build()
	got := corpus.Window(debit)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"recent-debit", "future"}, ids)

	credit := testutil.NewRecord("COFFEE SHOP").On("2025-01-05").For("4.50").Build()
	got = corpus.Window(credit)
	require.Len(t, got, 1)
	assert.Equal(t, "recent-credit", got[0].ID)

	unbounded := NewCorpus(records, 0)
	assert.Len(t, unbounded.Window(debit), 3)

	var nilCorpus *Corpus
	assert.Nil(t, nilCorpus.Window(debit))
	assert.Equal(t, 0, nilCorpus.Len())
}
