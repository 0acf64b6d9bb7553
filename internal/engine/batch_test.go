package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/duplicate"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/similarity"
	"github.com/Veraticus/sift/internal/testutil"
)

func TestBatchProcessor_Process(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.patterns.Upsert(ctx, "STARBUCKS", "Dining", "", "Starbucks")
	require.NoError(t, err)

	committed := testutil.NewRecord("SHELL OIL 12345").On("2025-01-02").For("-40.00").Build()
	existing := []model.Fingerprint{duplicate.FingerprintOf(committed)}

	records := []model.TransactionRecord{
		testutil.NewRecord("STARBUCKS #12345 SEATTLE WA").Build(),
		testutil.NewRecord("COFFEE SHOP").On("2025-01-05").For("4.50").Build(),
		testutil.NewRecord("COFFEE SHOP").On("2025-01-05").For("4.50").Build(),
		testutil.NewRecord("NETFLIX.COM").Build(),
		testutil.NewRecord("UNKNOWN VENDOR XYZ").Build(),
		committed,
		{Description: "no date"},
	}

	var (
		mu    sync.Mutex
		ticks []int
	)
	p := NewBatchProcessor(f.orchestrator(t), BatchOptions{
		Workers: 3,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			ticks = append(ticks, done)
			assert.Equal(t, len(records), total)
		},
	})

	report, err := p.Process(ctx, records, existing, similarity.NewCorpus(nil, 0))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, len(records))
	assert.NotEmpty(t, report.RunID)

	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, records[i].Description, o.Record.Description)
	}

	assert.Equal(t, "Dining", report.Outcomes[0].Result.Category.Name)
	assert.False(t, report.Outcomes[1].Duplicate, "first coffee is new")
	assert.True(t, report.Outcomes[2].Duplicate, "second coffee repeats the first")
	assert.Nil(t, report.Outcomes[2].Result)
	assert.Equal(t, "Subscriptions", report.Outcomes[3].Result.Category.Name)
	assert.Nil(t, report.Outcomes[4].Result.Category)
	assert.True(t, report.Outcomes[5].Duplicate, "already committed")
	assert.ErrorIs(t, report.Outcomes[6].Err, ErrInvalidRecord)
	assert.True(t, report.Outcomes[6].Failed())

	s := report.Summary
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 2, s.Duplicates)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Categorized)
	assert.Equal(t, 2, s.Uncategorized)
	assert.Equal(t, 1, s.BySource[model.SourceLearned])
	assert.Equal(t, 1, s.BySource[model.SourceKeyword])
	assert.Equal(t, 2, s.BySource[model.SourceNone])
	assert.Equal(t, 2, s.ByCode[model.CodeAINoSubcategorySuggestion])
	assert.Equal(t, 1, s.ByBand[model.BandHigh])
	assert.Equal(t, 1, s.ByBand[model.BandMedium])
	assert.Equal(t, 2, s.ByBand[model.BandLow])

	assert.Len(t, ticks, len(records))
}

func TestBatchProcessor_MatchesSequentialResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.orchestrator(t)

	history := []model.HistoricalRecord{
		testutil.History("h1", testutil.NewRecord("BLUE BOTTLE COFFEE").On("2024-12-20").Build(), "Food", "Coffee", ""),
	}
	corpus := similarity.NewCorpus(history, 365*24*time.Hour)

	var records []model.TransactionRecord
	for i, desc := range []string{"BLUE BOTTLE COFFEE SF", "NETFLIX", "SHELL", "RANDOM", "BLUE BOTTLE"} {
		records = append(records, testutil.NewRecord(desc).For("-1"+string(rune('0'+i))+".00").Build())
	}

	sequential, err := NewBatchProcessor(o, BatchOptions{Workers: 1}).Process(ctx, records, nil, corpus)
	require.NoError(t, err)
	parallel, err := NewBatchProcessor(o, BatchOptions{Workers: 8}).Process(ctx, records, nil, corpus)
	require.NoError(t, err)

	for i := range records {
		assert.Equal(t, sequential.Outcomes[i].Result, parallel.Outcomes[i].Result, "row %d", i)
	}
	assert.NotEqual(t, sequential.RunID, parallel.RunID)
}

func TestBatchProcessor_RowFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.catalog.Fail(1, nil)

	records := []model.TransactionRecord{
		testutil.NewRecord("NETFLIX").Build(),
		testutil.NewRecord("SHELL").On("2025-01-06").Build(),
	}

	report, err := NewBatchProcessor(f.orchestrator(t), BatchOptions{Workers: 1}).Process(ctx, records, nil, nil)
	require.NoError(t, err)

	assert.True(t, report.Outcomes[0].Failed())
	assert.False(t, report.Outcomes[1].Failed())
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.ByCode[model.CodeSystemError])
	assert.Equal(t, "Gas", report.Outcomes[1].Result.Category.Name)
}

func TestBatchProcessor_Empty(t *testing.T) {
	f := newFixture(t)
	report, err := NewBatchProcessor(f.orchestrator(t), DefaultBatchOptions()).Process(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Total)
	assert.Empty(t, report.Outcomes)
}

func TestBatchProcessor_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []model.TransactionRecord{testutil.NewRecord("NETFLIX").Build()}
	_, err := NewBatchProcessor(f.orchestrator(t), DefaultBatchOptions()).Process(ctx, records, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
