package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/pattern"
	"github.com/Veraticus/sift/internal/similarity"
)

// Settings is the validated application configuration.
type Settings struct {
	Logging  LoggingSettings  `mapstructure:"logging"`
	Database DatabaseSettings `mapstructure:"database"`
	Rules    RuleSettings     `mapstructure:"rules"`
	Engine   EngineSettings   `mapstructure:"engine"`
}

// LoggingSettings configures slog output.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseSettings locates the SQLite database.
type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

// EngineSettings tunes the categorization strategies and batch pool.
type EngineSettings struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	AgreementTopK       int     `mapstructure:"agreement_top_k"`
	HistoryWindowDays   int     `mapstructure:"history_window_days"`
	Workers             int     `mapstructure:"workers"`
	MaxCandidates       int     `mapstructure:"max_candidates"`
}

// RuleSettings holds the configured keyword rules. An empty list selects the
// built-in rule set.
type RuleSettings struct {
	Version  string              `mapstructure:"version"`
	Keywords []model.KeywordRule `mapstructure:"keywords"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("engine.similarity_threshold", similarity.DefaultThreshold)
	v.SetDefault("engine.agreement_top_k", similarity.DefaultAgreementTopK)
	v.SetDefault("engine.history_window_days", 365)
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.max_candidates", 10)
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	s.Database.Path = ExpandPath(s.Database.Path)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ranges and required values.
func (s *Settings) Validate() error {
	if _, err := common.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	switch s.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, s.Logging.Format)
	}

	if strings.TrimSpace(s.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", common.ErrInvalidConfig)
	}

	e := s.Engine
	switch {
	case e.SimilarityThreshold <= 0 || e.SimilarityThreshold > 100:
		return fmt.Errorf("%w: engine.similarity_threshold must be in (0, 100], got %v", common.ErrInvalidConfig, e.SimilarityThreshold)
	case e.AgreementTopK < 2:
		return fmt.Errorf("%w: engine.agreement_top_k must be at least 2, got %d", common.ErrInvalidConfig, e.AgreementTopK)
	case e.HistoryWindowDays < 0:
		return fmt.Errorf("%w: engine.history_window_days cannot be negative", common.ErrInvalidConfig)
	case e.Workers < 1:
		return fmt.Errorf("%w: engine.workers must be at least 1, got %d", common.ErrInvalidConfig, e.Workers)
	case e.MaxCandidates < 1:
		return fmt.Errorf("%w: engine.max_candidates must be at least 1, got %d", common.ErrInvalidConfig, e.MaxCandidates)
	}

	for i, rule := range s.Rules.Keywords {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("%w: rules.keywords[%d] has no pattern", common.ErrInvalidConfig, i)
		}
		if strings.TrimSpace(rule.Category) == "" && strings.TrimSpace(rule.Subcategory) == "" {
			return fmt.Errorf("%w: rules.keywords[%d] (%q) has no category", common.ErrInvalidConfig, i, rule.Pattern)
		}
	}
	return nil
}

// RuleSet compiles the configured rules, or the built-in set when none are configured.
func (s *Settings) RuleSet() (*pattern.RuleSet, error) {
	if len(s.Rules.Keywords) == 0 {
		return pattern.NewDefaultRuleSet()
	}

	version := s.Rules.Version
	if version == "" {
		version = "config"
	}
	rules, err := pattern.NewRuleSet(version, s.Rules.Keywords)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return rules, nil
}

// MatcherOptions returns the similarity matcher configuration.
func (s *Settings) MatcherOptions() similarity.Options {
	return similarity.Options{
		Threshold:     s.Engine.SimilarityThreshold,
		MaxCandidates: s.Engine.MaxCandidates,
		AgreementTopK: s.Engine.AgreementTopK,
	}
}

// HistoryWindow is the span either side of a record searched for similar history.
func (s *Settings) HistoryWindow() time.Duration {
	return time.Duration(s.Engine.HistoryWindowDays) * 24 * time.Hour
}
