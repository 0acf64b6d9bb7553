package model

import "time"

// LearnedConfidence is the confidence carried by every human-confirmed association.
const LearnedConfidence = 1.0

// LearnedAssociation is a user-confirmed mapping from merchant signature to categorization.
// There is at most one per signature; the latest confirmation replaces older ones.
type LearnedAssociation struct {
	ConfirmedAt time.Time
	Signature   string
	Category    string
	Subcategory string
	Payoree     string
	Confidence  float64
}

// KeywordRule maps a keyword (or regular expression) to a category.
// Rules are evaluated by descending Priority; equal priorities keep registration order.
type KeywordRule struct {
	Pattern     string `mapstructure:"pattern" json:"pattern"`
	Category    string `mapstructure:"category" json:"category"`
	Subcategory string `mapstructure:"subcategory" json:"subcategory,omitempty"`
	Payoree     string `mapstructure:"payoree" json:"payoree,omitempty"`
	Priority    int    `mapstructure:"priority" json:"priority"`
	IsRegex     bool   `mapstructure:"regex" json:"regex,omitempty"`
}
