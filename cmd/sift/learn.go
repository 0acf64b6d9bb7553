package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/lookup"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
	"github.com/Veraticus/sift/internal/service"
)

// learnRequest is one user correction.
type learnRequest struct {
	Input        string
	Category     string
	Subcategory  string
	Payoree      string
	IsSignature  bool
	AllowUnknown bool
}

func learnCmd() *cobra.Command {
	var req learnRequest

	cmd := &cobra.Command{
		Use:   "learn <description>",
		Short: "Confirm the category of a merchant",
		Long: `Record a confirmed category, subcategory and payoree for a merchant.

The description is reduced to its merchant signature, so every later
transaction with the same signature is categorized with full confidence.
A later confirmation for the same signature replaces the earlier one.`,
		Example: `  sift learn "STARBUCKS #12345 SEATTLE WA" --category Food --subcategory Coffee --payoree Starbucks
  sift learn AMAZON --signature --category Shopping`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			req.Input = args[0]
			assoc, err := learn(cmd.Context(), store, store, req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Learned %s → %s",
				cli.BoldStyle.Render(assoc.Signature), describeAssociation(*assoc))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Category, "category", "c", "", "Category name")
	cmd.Flags().StringVarP(&req.Subcategory, "subcategory", "s", "", "Subcategory name")
	cmd.Flags().StringVarP(&req.Payoree, "payoree", "p", "", "Payoree name")
	cmd.Flags().BoolVar(&req.IsSignature, "signature", false, "Treat the argument as a signature instead of a description")
	cmd.Flags().BoolVar(&req.AllowUnknown, "allow-unknown", false, "Store names that are not in the catalog")

	cmd.AddCommand(learnListCmd())

	return cmd
}

// learn validates req against the catalog and stores it.
func learn(ctx context.Context, store service.PatternStore, catalog service.Catalog, req learnRequest) (*model.LearnedAssociation, error) {
	signature := normalize.Signature(req.Input)
	if signature == "" || signature == normalize.UnknownSignature {
		return nil, common.NewUserError(fmt.Sprintf("no merchant signature could be extracted from %q", req.Input), common.ErrInvalidConfig)
	}
	// Categorization looks up the extracted signature, so an explicit one must already be in that form.
	if req.IsSignature && strings.ToUpper(strings.TrimSpace(req.Input)) != signature {
		return nil, common.NewUserError(
			fmt.Sprintf("%q is not a merchant signature; did you mean %q?", req.Input, signature),
			common.ErrInvalidConfig)
	}

	if !req.AllowUnknown {
		resolver := lookup.NewService(catalog)

		name, parent := req.Subcategory, req.Category
		if name == "" {
			name, parent = req.Category, ""
		}
		if name != "" {
			if _, code := resolver.ResolveSubcategory(ctx, name, parent, lookup.OriginCSV); code != model.CodeNone {
				return nil, common.NewUserError(fmt.Sprintf("category %q: %s", name, code.Description()), common.ErrNotFound)
			}
		}
		if req.Payoree != "" {
			if _, code := resolver.ResolvePayoree(ctx, req.Payoree, lookup.OriginCSV); code != model.CodeNone {
				return nil, common.NewUserError(fmt.Sprintf("payoree %q: %s", req.Payoree, code.Description()), common.ErrNotFound)
			}
		}
	}

	assoc, err := store.Upsert(ctx, signature, req.Category, req.Subcategory, req.Payoree)
	if err != nil {
		return nil, fmt.Errorf("failed to store association: %w", err)
	}
	return assoc, nil
}

func describeAssociation(a model.LearnedAssociation) string {
	parts := make([]string, 0, 3)
	if a.Category != "" {
		parts = append(parts, a.Category)
	}
	if a.Subcategory != "" {
		parts = append(parts, a.Subcategory)
	}
	label := strings.Join(parts, " / ")
	if a.Payoree != "" {
		label += " (" + a.Payoree + ")"
	}
	return label
}

func learnListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned associations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			associations, err := store.ListLearned(cmd.Context())
			if err != nil {
				return err
			}
			if len(associations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No learned associations yet."))
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(cli.SubtleStyle).
				Headers("SIGNATURE", "CATEGORY", "SUBCATEGORY", "PAYOREE", "CONFIRMED")
			for _, a := range associations {
				t.Row(a.Signature, a.Category, a.Subcategory, a.Payoree, formatRelativeTime(a.ConfirmedAt))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
}
