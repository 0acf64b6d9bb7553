// Package pattern provides the keyword rule engine used to categorize normalized descriptions.
package pattern

import "github.com/Veraticus/sift/internal/model"

// Matcher evaluates a normalized description against an ordered rule set.
type Matcher interface {
	// Match returns the first rule, in evaluation order, whose pattern matches.
	Match(normalized string) (RuleMatch, bool)
}

// RuleMatch is the rule that fired for a description.
type RuleMatch struct {
	Rule model.KeywordRule
	// Position is the rule's index in evaluation order.
	Position int
}

// Rule is an alias to the model.KeywordRule type for convenience.
type Rule = model.KeywordRule
