package pattern

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/sift/internal/normalize"
)

// Rule validation errors.
var (
	ErrEmptyPattern  = errors.New("rule pattern is empty")
	ErrEmptyCategory = errors.New("rule category is empty")
)

type compiledRule struct {
	regex   *regexp.Regexp
	keyword string
	rule    Rule
}

// RuleSet is an immutable, versioned list of keyword rules sorted for evaluation.
// It is safe for concurrent use.
type RuleSet struct {
	version string
	rules   []compiledRule
}

var _ Matcher = (*RuleSet)(nil)

// NewRuleSet validates and compiles rules. Rules are ordered by descending
// priority; rules with equal priority keep the order they were given in.
func NewRuleSet(version string, rules []Rule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))

	for i, rule := range rules {
		c, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %d (%q): %w", i, rule.Pattern, err)
		}
		compiled = append(compiled, c)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority > compiled[j].rule.Priority
	})

	return &RuleSet{
		version: version,
		rules:   compiled,
	}, nil
}

func compileRule(rule Rule) (compiledRule, error) {
	if strings.TrimSpace(rule.Pattern) == "" {
		return compiledRule{}, ErrEmptyPattern
	}
	if strings.TrimSpace(rule.Category) == "" {
		return compiledRule{}, ErrEmptyCategory
	}

	if rule.IsRegex {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return compiledRule{}, fmt.Errorf("failed to compile pattern: %w", err)
		}
		return compiledRule{rule: rule, regex: re}, nil
	}

	keyword := normalize.Normalize(rule.Pattern)
	if keyword == "" {
		return compiledRule{}, fmt.Errorf("%w after normalization", ErrEmptyPattern)
	}
	return compiledRule{rule: rule, keyword: keyword}, nil
}

// Match returns the first matching rule in evaluation order.
// Keyword rules match whole tokens of the normalized description; regex rules
// match anywhere, case-insensitively.
func (s *RuleSet) Match(normalized string) (RuleMatch, bool) {
	if normalized == "" {
		return RuleMatch{}, false
	}

	padded := " " + normalized + " "
	for i, c := range s.rules {
		if c.matches(normalized, padded) {
			slog.Debug("keyword rule matched",
				"rule", c.rule.Pattern,
				"category", c.rule.Category,
				"priority", c.rule.Priority,
				"version", s.version)
			return RuleMatch{Rule: c.rule, Position: i}, true
		}
	}

	return RuleMatch{}, false
}

func (c compiledRule) matches(normalized, padded string) bool {
	if c.regex != nil {
		return c.regex.MatchString(normalized)
	}
	return strings.Contains(padded, " "+c.keyword+" ")
}

// Version identifies the configuration the rule set was built from.
func (s *RuleSet) Version() string {
	return s.version
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the rules in evaluation order.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, c := range s.rules {
		out[i] = c.rule
	}
	return out
}
