package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/model"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage categories and payorees",
		Long: `Manage the canonical categories and payorees suggestions resolve to.

A category may have one parent; a category with a parent is a subcategory.`,
		Example: `  sift catalog add-category Food
  sift catalog add-category Coffee --parent Food
  sift catalog add-payoree Starbucks
  sift catalog list`,
	}

	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(addPayoreeCmd())
	cmd.AddCommand(listCatalogCmd())

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add-category <name>",
		Short: "Add a category or subcategory",
		Args:  cobra.ExactArgs(1),
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

			category, err := store.CreateCategory(cmd.Context(), args[0], parent)
			if err != nil {
				return fmt.Errorf("failed to add category %q: %w", args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+categoryPath(*category)))
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent category")

	return cmd
}

func addPayoreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-payoree <name>",
		Short: "Add a payoree",
		Args:  cobra.ExactArgs(1),
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

			payoree, err := store.CreatePayoree(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to add payoree %q: %w", args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added payoree "+payoree.Name))
			return nil
		},
	}
}

func listCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories and payorees",
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

			categories, err := store.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			payorees, err := store.ListPayorees(cmd.Context())
			if err != nil {
				return err
			}

			printCatalog(cmd.OutOrStdout(), categories, payorees)
			return nil
		},
	}
}

func categoryPath(c model.Category) string {
	if c.Parent != nil {
		return c.Parent.Name + " / " + c.Name
	}
	return c.Name
}

func printCatalog(w io.Writer, categories []model.Category, payorees []model.Payoree) {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Categories (%d)", len(categories))))
	if len(categories) == 0 {
		fmt.Fprintln(w, cli.SubtitleStyle.Render("No categories yet."))
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(cli.SubtleStyle).
			Headers("ID", "CATEGORY")
		for _, c := range categories {
			t.Row(strconv.FormatInt(c.ID, 10), categoryPath(c))
		}
		fmt.Fprintln(w, t.String())
	}

	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Payorees (%d)", len(payorees))))
	if len(payorees) == 0 {
		fmt.Fprintln(w, cli.SubtitleStyle.Render("No payorees yet."))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("ID", "PAYOREE")
	for _, p := range payorees {
		t.Row(strconv.FormatInt(p.ID, 10), p.Name)
	}
	fmt.Fprintln(w, t.String())
}
