package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
	"github.com/Veraticus/sift/internal/similarity"
	"github.com/Veraticus/sift/internal/storage"
)

func categorizeCmd() *cobra.Command {
	var (
		importOpts importOptions
		reportOpts cli.ReportOptions
		commit     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "categorize <file>",
		Short: "Categorize transactions from a CSV or OFX file",
		Long: `Categorize every transaction in a CSV, OFX or QFX file.

Rows already stored, or repeated earlier in the same file, are flagged as
duplicates and left alone. Without --commit nothing is written; with --commit
an automatic checkpoint is taken and the categorized rows are stored together
with their first categorization error.`,
		Example: `  # Preview how a statement would be categorized
  sift categorize ~/Downloads/checking.csv

  # Only show rows that need attention
  sift categorize statement.qfx --issues-only

  # Store the results
  sift categorize statement.qfx --commit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), commit)

			records, err := readRecords(ctx, args[0], importOpts)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No transactions found in "+args[0]))
				return nil
			}

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var progress *cli.Progress
			tick := func(_, _ int) {}
			if !noProgress && stderrIsTerminal() {
				progress = cli.NewProgress(cmd.ErrOrStderr(), len(records), "Categorizing transactions...")
				tick = progress.Tick
			}

			report, err := categorizeRecords(ctx, store, settings, records, tick)
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return err
			}
			if progress != nil {
				progress.Finish()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Run %s", report.RunID)))
			fmt.Fprintln(out, cli.RenderReport(report, reportOpts))
			fmt.Fprintln(out, cli.RenderSummary(report.Summary))

			if !commit {
				fmt.Fprintln(out, cli.FormatInfo("Preview only. Re-run with --commit to store these results."))
				return nil
			}

			ids, err := commitReport(ctx, store, report)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Committed %d transactions", len(ids))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "Store the categorized transactions")
	cmd.Flags().StringVarP(&importOpts.AccountID, "account", "a", "", "Account ID for rows that do not carry one")
	cmd.Flags().StringVar(&importOpts.Delimiter, "delimiter", "", `CSV delimiter (default ",", use \t for tabs)`)
	cmd.Flags().BoolVar(&reportOpts.OnlyIssues, "issues-only", false, "Only show rows that need attention")
	cmd.Flags().BoolVar(&reportOpts.ShowDuplicates, "show-duplicates", false, "Include duplicate rows in the table")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

// categorizeRecords runs the batch against the stored learned associations,
// history and fingerprints. It writes nothing.
func categorizeRecords(ctx context.Context, store *storage.SQLiteStorage, settings *config.Settings, records []model.TransactionRecord, progress func(done, total int)) (*engine.BatchReport, error) {
	rules, err := settings.RuleSet()
	if err != nil {
		return nil, err
	}

	snapshot, err := store.LoadLearnedSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load learned associations: %w", err)
	}

	var (
		history      []model.HistoricalRecord
		fingerprints []model.Fingerprint
	)
	if start, end, ok := dateSpan(records); ok {
		window := settings.HistoryWindow()
		from, to := start.Add(-window), end.Add(window)
		history, err = store.GetHistory(ctx, service.HistoryFilter{StartDate: &from, EndDate: &to})
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		fingerprints, err = store.GetFingerprints(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load fingerprints: %w", err)
		}
	}

	orchestrator, err := engine.New(engine.Dependencies{
		Patterns: snapshot,
		Rules:    rules,
		Matcher:  similarity.NewMatcher(settings.MatcherOptions()),
		Catalog:  store,
	}, engine.DefaultConfig())
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded categorization context",
		"learned", snapshot.Len(),
		"rules", rules.Len(),
		"rules_version", rules.Version(),
		"history", len(history),
		"fingerprints", len(fingerprints))

	processor := engine.NewBatchProcessor(orchestrator, engine.BatchOptions{
		Workers:  settings.Engine.Workers,
		Progress: progress,
	})
	return processor.Process(ctx, records, fingerprints, similarity.NewCorpus(history, settings.HistoryWindow()))
}

// committedRows selects what a commit stores. Duplicates and malformed records
// are skipped; rows that failed with a system error are kept with an empty
// suggestion so the failure is recorded rather than lost.
func committedRows(report *engine.BatchReport) []storage.CommittedRow {
	rows := make([]storage.CommittedRow, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		switch {
		case o.Duplicate:
			continue
		case errors.Is(o.Err, engine.ErrInvalidRecord):
			slog.Warn("Not committing malformed record", "index", o.Index, "error", o.Err)
			continue
		case o.Err != nil:
			// A failed row carries no category, so it is also unsuggested.
			result := &model.CategorizationResult{Source: model.SourceNone}
			result.AddError(model.CodeSystemError)
			result.AddError(model.CodeAINoSubcategorySuggestion)
			rows = append(rows, storage.CommittedRow{Record: o.Record, Result: result})
		case o.Result != nil:
			rows = append(rows, storage.CommittedRow{Record: o.Record, Result: o.Result})
		}
	}
	return rows
}

// commitReport takes an automatic checkpoint and stores the report.
func commitReport(ctx context.Context, store *storage.SQLiteStorage, report *engine.BatchReport) ([]string, error) {
	rows := committedRows(report)
	if len(rows) == 0 {
		return nil, nil
	}

	manager, err := store.NewCheckpointManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	if _, err := manager.AutoCheckpoint(ctx, "categorize"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint before commit: %w", err)
	}

	ids, err := store.SaveResults(ctx, report.RunID, rows)
	if err != nil {
		common.LogError(err, "Failed to commit categorization run", common.Fields{
			"run_id": report.RunID,
			"rows":   len(rows),
		})
		return nil, fmt.Errorf("failed to commit run %s: %w", report.RunID, err)
	}

	common.LogInfo("Committed categorization run", common.Fields{
		"run_id":     report.RunID,
		"committed":  len(ids),
		"duplicates": report.Summary.Duplicates,
	})
	return ids, nil
}

// stderrIsTerminal reports whether progress output would reach a terminal.
func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
