// Package lookup resolves category and payoree names against the catalog
// without ever failing on absent or ambiguous names.
package lookup

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// Origin says where a name came from, which selects the error code family.
type Origin string

// Name origins.
const (
	OriginCSV Origin = "csv"
	OriginAI  Origin = "ai"
)

// Service wraps a catalog and converts every outcome into an entity or an error code.
type Service struct {
	catalog service.Catalog
	retry   service.RetryOptions
}

// Option configures a Service.
type Option func(*Service)

// WithRetryOptions overrides the persistence retry policy.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(s *Service) {
		s.retry = opts
	}
}

// NewService creates a lookup service. Backend failures are retried once by default.
func NewService(catalog service.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		retry:   common.PersistenceRetryOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveCategory returns the category named name, or a code explaining why not.
// Not found yields CSV_ or AI_SUBCATEGORY_LOOKUP_FAILED by origin, more than one
// match yields MULTIPLE_SUBCATEGORIES_FOUND, and a backend failure that survives
// one retry yields SYSTEM_ERROR.
func (s *Service) ResolveCategory(ctx context.Context, name string, origin Origin) (*model.Category, model.ErrorCode) {
	return s.ResolveSubcategory(ctx, name, "", origin)
}

// ResolveSubcategory is ResolveCategory restricted to subcategories of parent.
// The same subcategory name may exist under several parents; only a match
// under parent counts. An empty parent applies no restriction.
func (s *Service) ResolveSubcategory(ctx context.Context, name, parent string, origin Origin) (*model.Category, model.ErrorCode) {
	name = strings.TrimSpace(name)
	parent = strings.TrimSpace(parent)
	if name == "" {
		if origin == OriginAI {
			return nil, model.CodeAINoSubcategorySuggestion
		}
		return nil, model.CodeCSVSubcategoryLookupFailed
	}

	var result model.Lookup[model.Category]
	err := common.WithRetry(ctx, func() error {
		var lookupErr error
		result, lookupErr = s.catalog.LookupCategory(ctx, name)
		return lookupErr
	}, s.retry)
	if err != nil {
		slog.Error("category lookup failed",
			"name", name,
			"origin", origin,
			"error", err)
		return nil, model.CodeSystemError
	}
	if parent != "" {
		result = underParent(result, parent)
	}

	switch result.Status {
	case model.LookupFound:
		return result.Entity, model.CodeNone
	case model.LookupAmbiguous:
		slog.Warn("category name is ambiguous",
			"name", name,
			"parent", parent,
			"origin", origin,
			"candidates", len(result.Candidates))
		return nil, model.CodeMultipleSubcategoriesFound
	default:
		slog.Warn("category not found", "name", name, "parent", parent, "origin", origin)
		if origin == OriginAI {
			return nil, model.CodeAISubcategoryLookupFailed
		}
		return nil, model.CodeCSVSubcategoryLookupFailed
	}
}

// underParent keeps only the matches whose parent is named parent.
func underParent(result model.Lookup[model.Category], parent string) model.Lookup[model.Category] {
	matches := result.Candidates
	if result.Status == model.LookupFound {
		matches = []model.Category{*result.Entity}
	}

	var kept []model.Category
	for _, cat := range matches {
		if cat.Parent != nil && strings.EqualFold(cat.Parent.Name, parent) {
			kept = append(kept, cat)
		}
	}
	return model.LookupFrom(kept)
}

// ResolvePayoree returns the payoree named name, or a code explaining why not.
func (s *Service) ResolvePayoree(ctx context.Context, name string, origin Origin) (*model.Payoree, model.ErrorCode) {
	name = strings.TrimSpace(name)
	if name == "" {
		if origin == OriginAI {
			return nil, model.CodeAINoPayoreeSuggestion
		}
		return nil, model.CodeCSVPayoreeLookupFailed
	}

	var result model.Lookup[model.Payoree]
	err := common.WithRetry(ctx, func() error {
		var lookupErr error
		result, lookupErr = s.catalog.LookupPayoree(ctx, name)
		return lookupErr
	}, s.retry)
	if err != nil {
		slog.Error("payoree lookup failed",
			"name", name,
			"origin", origin,
			"error", err)
		return nil, model.CodeSystemError
	}

	switch result.Status {
	case model.LookupFound:
		return result.Entity, model.CodeNone
	case model.LookupAmbiguous:
		slog.Warn("payoree name is ambiguous",
			"name", name,
			"origin", origin,
			"candidates", len(result.Candidates))
		return nil, model.CodeMultipleMatchesFound
	default:
		slog.Warn("payoree not found", "name", name, "origin", origin)
		if origin == OriginAI {
			return nil, model.CodeAIPayoreeLookupFailed
		}
		return nil, model.CodeCSVPayoreeLookupFailed
	}
}
