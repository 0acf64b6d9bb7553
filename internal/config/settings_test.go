package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/pattern"
)

func loadYAML(t *testing.T, yaml string) (*Settings, error) {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	s, err := loadYAML(t, "")
	require.NoError(t, err)

	assert.Equal(t, "info", s.Logging.Level)
	assert.InDelta(t, 85.0, s.Engine.SimilarityThreshold, 1e-9)
	assert.Equal(t, 3, s.Engine.AgreementTopK)
	assert.Equal(t, 4, s.Engine.Workers)
	assert.Equal(t, 365*24*time.Hour, s.HistoryWindow())
	assert.Equal(t, DefaultDatabasePath(), s.Database.Path)

	rules, err := s.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, pattern.DefaultVersion, rules.Version())
}

func TestLoad_ConfiguredRules(t *testing.T) {
	s, err := loadYAML(t, `
engine:
  similarity_threshold: 90
  workers: 2
rules:
  version: household-3
  keywords:
    - pattern: NETFLIX
      category: Subscriptions
      priority: 10
    - pattern: '\bSHELL\b'
      category: Gas
      payoree: Shell
      regex: true
      priority: 20
`)
	require.NoError(t, err)

	opts := s.MatcherOptions()
	assert.InDelta(t, 90.0, opts.Threshold, 1e-9)
	assert.Equal(t, 10, opts.MaxCandidates)

	rules, err := s.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, "household-3", rules.Version())
	assert.Equal(t, 2, rules.Len())

	match, ok := rules.Match("SHELL OIL")
	require.True(t, ok)
	assert.Equal(t, "Gas", match.Rule.Category)
	assert.Equal(t, "Shell", match.Rule.Payoree)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "threshold too high", yaml: "engine:\n  similarity_threshold: 150\n"},
		{name: "no workers", yaml: "engine:\n  workers: 0\n"},
		{name: "top k of one", yaml: "engine:\n  agreement_top_k: 1\n"},
		{name: "bad log level", yaml: "logging:\n  level: loud\n"},
		{name: "bad log format", yaml: "logging:\n  format: xml\n"},
		{name: "rule without category", yaml: "rules:\n  keywords:\n    - pattern: FOO\n"},
		{name: "rule without pattern", yaml: "rules:\n  keywords:\n    - category: Food\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yaml)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestRuleSet_BadRegex(t *testing.T) {
	s, err := loadYAML(t, "rules:\n  keywords:\n    - pattern: '(['\n      category: Food\n      regex: true\n")
	require.NoError(t, err)

	_, err = s.RuleSet()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SIFT_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "sift.db"), ExpandPath("~/sift.db"))
	assert.Equal(t, "/data/sift.db", ExpandPath("$SIFT_TEST_DIR/sift.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
