package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/sift/internal/engine"
	"github.com/Veraticus/sift/internal/model"
)

const maxDescriptionWidth = 40

// ReportOptions selects which rows RenderReport shows.
type ReportOptions struct {
	// OnlyIssues hides rows that were categorized with high confidence and no issues.
	OnlyIssues bool
	// ShowDuplicates includes rows skipped as duplicates.
	ShowDuplicates bool
}

// RenderReport renders the outcome of a batch as a table, one row per input row.
func RenderReport(report *engine.BatchReport, opts ReportOptions) string {
	rows := make([][]string, 0, len(report.Outcomes))
	bands := make([]model.Band, 0, len(report.Outcomes))

	for _, o := range report.Outcomes {
		if o.Duplicate && !opts.ShowDuplicates {
			continue
		}
		if opts.OnlyIssues && isClean(o) {
			continue
		}
		rows = append(rows, outcomeRow(o))
		bands = append(bands, outcomeBand(o))
	}

	if len(rows) == 0 {
		return SubtleStyle.Render("No rows to show.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers("#", "Date", "Amount", "Description", "Category", "Payoree", "Source", "Conf", "Issues").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(1)
			if row == table.HeaderRow {
				return TableHeaderStyle.PaddingRight(1)
			}
			if col == 7 && row >= 0 && row < len(bands) {
				return BandStyle(bands[row]).PaddingRight(1)
			}
			return style
		})

	return t.String()
}

func isClean(o engine.RowOutcome) bool {
	return !o.Duplicate && o.Err == nil && o.Result != nil &&
		o.Result.Category != nil && len(o.Result.Errors) == 0 && o.Result.Band() == model.BandHigh
}

func outcomeBand(o engine.RowOutcome) model.Band {
	if o.Result == nil {
		return model.BandLow
	}
	return o.Result.Band()
}

func outcomeRow(o engine.RowOutcome) []string {
	rec := o.Record
	row := []string{
		fmt.Sprintf("%d", o.Index+1),
		rec.CalendarDate(),
		rec.Amount.StringFixed(2),
		truncate(rec.Description, maxDescriptionWidth),
	}

	switch {
	case o.Duplicate:
		return append(row, "-", "-", "duplicate", "-", "")
	case o.Err != nil:
		return append(row, "-", "-", "error", "-", o.Err.Error())
	case o.Result == nil:
		return append(row, "-", "-", "-", "-", "")
	}

	r := o.Result
	return append(row,
		categoryLabel(r),
		payoreeLabel(r),
		string(sourceOrNone(r.Source)),
		fmt.Sprintf("%.2f", r.Confidence),
		issueLabel(r.Errors),
	)
}

func sourceOrNone(s model.Source) model.Source {
	if s == "" {
		return model.SourceNone
	}
	return s
}

// categoryLabel shows the resolved path, or the unresolved suggestion followed by "?".
func categoryLabel(r *model.CategorizationResult) string {
	switch {
	case r.Subcategory != nil && r.Subcategory.Parent != nil:
		return r.Subcategory.Parent.Name + " / " + r.Subcategory.Name
	case r.Category != nil:
		return r.Category.Name
	case r.SubcategorySuggestion != "":
		return r.SubcategorySuggestion + "?"
	case r.CategorySuggestion != "":
		return r.CategorySuggestion + "?"
	default:
		return "-"
	}
}

func payoreeLabel(r *model.CategorizationResult) string {
	switch {
	case r.Payoree != nil:
		return r.Payoree.Name
	case r.PayoreeSuggestion != "":
		return r.PayoreeSuggestion + "?"
	default:
		return "-"
	}
}

func issueLabel(codes []model.ErrorCode) string {
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = string(code)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// RenderSummary renders batch totals in a box.
func RenderSummary(summary engine.BatchSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rows:          %d\n", summary.Total)
	fmt.Fprintf(&b, "Categorized:   %s\n", SuccessStyle.Render(fmt.Sprintf("%d", summary.Categorized)))
	fmt.Fprintf(&b, "Uncategorized: %s\n", WarningStyle.Render(fmt.Sprintf("%d", summary.Uncategorized)))
	fmt.Fprintf(&b, "Duplicates:    %d\n", summary.Duplicates)
	fmt.Fprintf(&b, "Failed:        %s\n", ErrorStyle.Render(fmt.Sprintf("%d", summary.Failed)))

	b.WriteString("\nBy band:\n")
	for _, band := range []model.Band{model.BandHigh, model.BandMedium, model.BandLow} {
		fmt.Fprintf(&b, "  %-8s %d\n", FormatBand(band), summary.ByBand[band])
	}

	if len(summary.BySource) > 0 {
		b.WriteString("\nBy source:\n")
		sources := make([]string, 0, len(summary.BySource))
		for source := range summary.BySource {
			sources = append(sources, string(source))
		}
		slices.Sort(sources)
		for _, source := range sources {
			fmt.Fprintf(&b, "  %-11s %d\n", source, summary.BySource[model.Source(source)])
		}
	}

	if len(summary.ByCode) > 0 {
		b.WriteString("\nIssues:\n")
		for _, code := range model.AllCodes() {
			if n := summary.ByCode[code]; n > 0 {
				fmt.Fprintf(&b, "  %-31s %d\n", code, n)
			}
		}
	}

	fmt.Fprintf(&b, "\nTook %s", summary.ProcessingTime.Round(time.Millisecond))

	return RenderBox(ChartIcon+" Categorization summary", b.String())
}
