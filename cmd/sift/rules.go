package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sift/internal/cli"
	"github.com/Veraticus/sift/internal/normalize"
	"github.com/Veraticus/sift/internal/pattern"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect keyword rules",
		Long: `List the keyword rules in evaluation order, or test which rule a
description would match. Rules come from rules.keywords in the config file;
the built-in set is used when none are configured.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keyword rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			rules, err := settings.RuleSet()
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}
}

func printRules(w io.Writer, rules *pattern.RuleSet) {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Keyword rules (%s, %d rules)", rules.Version(), rules.Len())))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("#", "PRIORITY", "PATTERN", "CATEGORY", "SUBCATEGORY", "PAYOREE")
	for i, rule := range rules.Rules() {
		p := rule.Pattern
		if rule.IsRegex {
			p = "/" + p + "/"
		}
		t.Row(strconv.Itoa(i+1), strconv.Itoa(rule.Priority), p, rule.Category, rule.Subcategory, rule.Payoree)
	}
	fmt.Fprintln(w, t.String())
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Show which rule a description matches",
		Example: `  sift rules test "SHELL OIL 57444 AUSTIN TX"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			rules, err := settings.RuleSet()
			if err != nil {
				return err
			}
			testRule(cmd.OutOrStdout(), rules, args[0])
			return nil
		},
	}
}

func testRule(w io.Writer, rules *pattern.RuleSet, description string) {
	normalized := normalize.Normalize(description)
	fmt.Fprintf(w, "Normalized: %s\n", cli.BoldStyle.Render(normalized))
	fmt.Fprintf(w, "Signature:  %s\n", cli.BoldStyle.Render(normalize.ExtractMerchant(normalized)))

	match, ok := rules.Match(normalized)
	if !ok {
		fmt.Fprintln(w, cli.FormatWarning("No keyword rule matches"))
		return
	}

	rule := match.Rule
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Rule #%d %q matches", match.Position+1, rule.Pattern)))
	fmt.Fprintf(w, "  Category:    %s\n", rule.Category)
	if rule.Subcategory != "" {
		fmt.Fprintf(w, "  Subcategory: %s\n", rule.Subcategory)
	}
	if rule.Payoree != "" {
		fmt.Fprintf(w, "  Payoree:     %s\n", rule.Payoree)
	}
}
