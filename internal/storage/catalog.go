package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
)

const categoryColumns = `
	c.id, c.name, c.created_at,
	p.id, p.name, p.created_at
	FROM categories c
	LEFT JOIN categories p ON c.parent_id = p.id`

// LookupCategory resolves a category name case-insensitively. A name shared by
// categories under different parents is ambiguous.
func (s *SQLiteStorage) LookupCategory(ctx context.Context, name string) (model.Lookup[model.Category], error) {
	if err := validateContext(ctx); err != nil {
		return model.NotFound[model.Category](), err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NotFound[model.Category](), nil
	}

	matches, err := s.queryCategories(ctx,
		"SELECT"+categoryColumns+" WHERE c.name = ? COLLATE NOCASE ORDER BY c.id", name)
	if err != nil {
		return model.NotFound[model.Category](), fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	return model.LookupFrom(matches), nil
}

// ListCategories returns every category, parents before their children.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	categories, err := s.queryCategories(ctx,
		"SELECT"+categoryColumns+" ORDER BY IFNULL(p.name, c.name) COLLATE NOCASE, c.parent_id IS NOT NULL, c.name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category. When parent is non-empty it must name exactly
// one existing top-level category and the new category becomes its subcategory.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, parent string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var parentCategory *model.Category
	if strings.TrimSpace(parent) != "" {
		lookup, err := s.LookupCategory(ctx, parent)
		if err != nil {
			return nil, err
		}
		switch lookup.Status {
		case model.LookupNotFound:
			return nil, fmt.Errorf("parent category %q: %w", parent, common.ErrNotFound)
		case model.LookupAmbiguous:
			return nil, fmt.Errorf("parent category %q matches %d categories: %w", parent, len(lookup.Candidates), common.ErrDuplicateEntry)
		}
		if !lookup.Entity.IsTopLevel() {
			return nil, fmt.Errorf("%w: parent %q is itself a subcategory", common.ErrInvalidConfig, parent)
		}
		parentCategory = lookup.Entity
	}

	var parentID sql.NullInt64
	if parentCategory != nil {
		parentID = sql.NullInt64{Int64: parentCategory.ID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, "INSERT INTO categories (name, parent_id) VALUES (?, ?)", name, parentID)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create category: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	categories, err := s.queryCategories(ctx, "SELECT"+categoryColumns+" WHERE c.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload category: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return &categories[0], nil
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var (
			c          model.Category
			parentID   sql.NullInt64
			parentName sql.NullString
			parentAt   sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &parentID, &parentName, &parentAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if parentID.Valid {
			c.Parent = &model.Category{
				ID:        parentID.Int64,
				Name:      parentName.String,
				CreatedAt: parentAt.Time,
			}
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return categories, nil
}

// LookupPayoree resolves a payoree by exact case-insensitive name, falling back
// to its normalized form so "Shell Oil" finds "SHELL OIL #1234".
func (s *SQLiteStorage) LookupPayoree(ctx context.Context, name string) (model.Lookup[model.Payoree], error) {
	if err := validateContext(ctx); err != nil {
		return model.NotFound[model.Payoree](), err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NotFound[model.Payoree](), nil
	}

	matches, err := s.queryPayorees(ctx,
		"SELECT id, name, created_at FROM payorees WHERE name = ? COLLATE NOCASE ORDER BY id", name)
	if err != nil {
		return model.NotFound[model.Payoree](), fmt.Errorf("failed to look up payoree %q: %w", name, err)
	}
	if len(matches) > 0 {
		return model.LookupFrom(matches), nil
	}

	normalized := normalize.Normalize(name)
	if normalized == "" {
		return model.NotFound[model.Payoree](), nil
	}
	matches, err = s.queryPayorees(ctx,
		"SELECT id, name, created_at FROM payorees WHERE normalized_name = ? ORDER BY id", normalized)
	if err != nil {
		return model.NotFound[model.Payoree](), fmt.Errorf("failed to look up payoree %q: %w", name, err)
	}
	return model.LookupFrom(matches), nil
}

// ListPayorees returns every payoree ordered by name.
func (s *SQLiteStorage) ListPayorees(ctx context.Context) ([]model.Payoree, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	payorees, err := s.queryPayorees(ctx, "SELECT id, name, created_at FROM payorees ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("failed to list payorees: %w", err)
	}
	return payorees, nil
}

// CreatePayoree adds a payoree.
func (s *SQLiteStorage) CreatePayoree(ctx context.Context, name string) (*model.Payoree, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO payorees (name, normalized_name) VALUES (?, ?)", name, normalize.Normalize(name))
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("payoree %q: %w", name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create payoree: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get payoree ID: %w", err)
	}

	payorees, err := s.queryPayorees(ctx, "SELECT id, name, created_at FROM payorees WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload payoree: %w", err)
	}
	if len(payorees) == 0 {
		return nil, fmt.Errorf("payoree %d: %w", id, common.ErrNotFound)
	}
	return &payorees[0], nil
}

func (s *SQLiteStorage) queryPayorees(ctx context.Context, query string, args ...any) ([]model.Payoree, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var payorees []model.Payoree
	for rows.Next() {
		var p model.Payoree
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payoree: %w", err)
		}
		payorees = append(payorees, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return payorees, nil
}
