package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/sift/internal/duplicate"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/similarity"
)

// BatchOptions configures batch processing.
type BatchOptions struct {
	// Progress is called after each row finishes. It may be called from several goroutines.
	Progress func(done, total int)
	Workers  int
}

// DefaultBatchOptions returns sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Workers: 4,
	}
}

// RowOutcome is the result for one input row.
type RowOutcome struct {
	Err       error
	Result    *model.CategorizationResult
	Record    model.TransactionRecord
	Index     int
	Duplicate bool
}

// Failed reports whether the row could not be categorized.
func (r RowOutcome) Failed() bool {
	return r.Err != nil
}

// BatchSummary contains statistics about the batch run.
type BatchSummary struct {
	BySource       map[model.Source]int
	ByBand         map[model.Band]int
	ByCode         map[model.ErrorCode]int
	Total          int
	Categorized    int
	Uncategorized  int
	Duplicates     int
	Failed         int
	ProcessingTime time.Duration
}

// BatchReport is the outcome of one batch run, in input order.
type BatchReport struct {
	RunID    string
	Outcomes []RowOutcome
	Summary  BatchSummary
}

// BatchProcessor runs an Orchestrator over many records.
type BatchProcessor struct {
	orchestrator *Orchestrator
	opts         BatchOptions
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(orchestrator *Orchestrator, opts BatchOptions) *BatchProcessor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &BatchProcessor{orchestrator: orchestrator, opts: opts}
}

// Process flags exact duplicates against existing and against earlier rows of
// the same batch, then categorizes the remaining rows on a bounded worker pool.
// Row failures are reported per row; only cancellation aborts the batch.
func (p *BatchProcessor) Process(ctx context.Context, records []model.TransactionRecord, existing []model.Fingerprint, corpus *similarity.Corpus) (*BatchReport, error) {
	startTime := time.Now()
	report := &BatchReport{
		RunID:    uuid.NewString(),
		Outcomes: make([]RowOutcome, len(records)),
	}

	if len(records) == 0 {
		slog.Info("No records to categorize", "run_id", report.RunID)
		report.Summary = summarize(report.Outcomes, time.Since(startTime))
		return report, nil
	}

	slog.Info("Starting batch categorization",
		"run_id", report.RunID,
		"records", len(records),
		"history", corpus.Len(),
		"existing_fingerprints", len(existing),
		"workers", p.opts.Workers)

	// Duplicate checks run in input order so the first of two identical rows wins.
	index := duplicate.NewIndex(existing)
	for i, rec := range records {
		report.Outcomes[i] = RowOutcome{Index: i, Record: rec}
		if ValidateRecord(rec) != nil {
			continue
		}
		report.Outcomes[i].Duplicate = index.CheckAndAdd(rec)
	}

	var (
		mu   sync.Mutex
		done int
	)
	tick := func() {
		if p.opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		p.opts.Progress(n, len(records))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i := range report.Outcomes {
		outcome := &report.Outcomes[i]
		if outcome.Duplicate {
			tick()
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := p.orchestrator.Categorize(gctx, outcome.Record, corpus.Window(outcome.Record))
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			outcome.Result = result
			outcome.Err = err
			if err != nil {
				slog.Warn("Failed to categorize record",
					"run_id", report.RunID,
					"index", outcome.Index,
					"record", outcome.Record.String(),
					"error", err)
			}
			tick()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s canceled: %w", report.RunID, err)
	}

	report.Summary = summarize(report.Outcomes, time.Since(startTime))

	slog.Info("Finished batch categorization",
		"run_id", report.RunID,
		"categorized", report.Summary.Categorized,
		"uncategorized", report.Summary.Uncategorized,
		"duplicates", report.Summary.Duplicates,
		"failed", report.Summary.Failed,
		"duration", report.Summary.ProcessingTime)

	return report, nil
}

func summarize(outcomes []RowOutcome, elapsed time.Duration) BatchSummary {
	s := BatchSummary{
		BySource:       make(map[model.Source]int),
		ByBand:         make(map[model.Band]int),
		ByCode:         make(map[model.ErrorCode]int),
		Total:          len(outcomes),
		ProcessingTime: elapsed,
	}

	for _, o := range outcomes {
		switch {
		case o.Duplicate:
			s.Duplicates++
		case o.Err != nil:
			s.Failed++
			var rowErr *RowError
			if errors.As(o.Err, &rowErr) {
				s.ByCode[rowErr.Code]++
			}
		case o.Result != nil:
			if o.Result.Category != nil {
				s.Categorized++
			} else {
				s.Uncategorized++
			}
			s.BySource[o.Result.Source]++
			s.ByBand[o.Result.Band()]++
			for _, code := range o.Result.Errors {
				s.ByCode[code]++
			}
		}
	}

	return s
}
