package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/pattern"
	"github.com/Veraticus/sift/internal/storage"
)

func TestTestRule(t *testing.T) {
	rules, err := pattern.NewDefaultRuleSet()
	require.NoError(t, err)

	var out bytes.Buffer
	testRule(&out, rules, "NETFLIX.COM 866-579-7172 CA")
	assert.Contains(t, out.String(), "NETFLIX")
	assert.Contains(t, out.String(), "Subscriptions")

	out.Reset()
	testRule(&out, rules, "ZQXWV")
	assert.Contains(t, out.String(), "No keyword rule matches")
}

func TestPrintRules(t *testing.T) {
	rules, err := pattern.NewRuleSet("household-1", []model.KeywordRule{
		{Pattern: "NETFLIX", Category: "Subscriptions", Priority: 10},
		{Pattern: `\bSHELL\b`, Category: "Gas", IsRegex: true, Priority: 20},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	printRules(&out, rules)
	assert.Contains(t, out.String(), "household-1")
	assert.Contains(t, out.String(), `/\bSHELL\b/`)
	assert.Less(t, bytes.Index(out.Bytes(), []byte("SHELL")), bytes.Index(out.Bytes(), []byte("NETFLIX")))
}

func TestPrintCatalog(t *testing.T) {
	food := model.Category{ID: 1, Name: "Food"}
	var out bytes.Buffer
	printCatalog(&out, []model.Category{food, {ID: 2, Name: "Coffee", Parent: &food}}, nil)

	assert.Contains(t, out.String(), "Food / Coffee")
	assert.Contains(t, out.String(), "No payorees yet.")
}

func TestPrintCheckpoints(t *testing.T) {
	var out bytes.Buffer
	printCheckpoints(&out, nil)
	assert.Contains(t, out.String(), "No checkpoints found.")

	out.Reset()
	printCheckpoints(&out, []storage.CheckpointInfo{
		{ID: "auto-categorize-1", CreatedAt: time.Now(), IsAuto: true, Transactions: 12},
	})
	assert.Contains(t, out.String(), "auto-categorize-1")
	assert.Contains(t, out.String(), "just now")
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", formatRelativeTime(now))
	assert.Equal(t, "5 minutes ago", formatRelativeTime(now.Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "yesterday", formatRelativeTime(now.Add(-25*time.Hour)))
}
