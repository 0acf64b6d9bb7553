package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
	"github.com/Veraticus/sift/internal/service"
)

// ErrBackend is the failure injected by MemoryCatalog.Fail.
var ErrBackend = errors.New("catalog backend unavailable")

// MemoryCatalog is an in-memory service.Catalog with failure injection.
type MemoryCatalog struct {
	failWith   error
	categories []model.Category
	payorees   []model.Payoree
	calls      atomic.Int64
	failures   int
	mu         sync.Mutex
	nextID     int64
}

var _ service.Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{}
}

// AddCategory adds a top-level category and returns it.
func (c *MemoryCatalog) AddCategory(name string) model.Category {
	return c.AddSubcategory(name, nil)
}

// AddSubcategory adds a category under parent (nil for top level).
func (c *MemoryCatalog) AddSubcategory(name string, parent *model.Category) model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	cat := model.Category{ID: c.nextID, Name: name, Parent: parent}
	c.categories = append(c.categories, cat)
	return cat
}

// AddPayoree adds a payoree and returns it.
func (c *MemoryCatalog) AddPayoree(name string) model.Payoree {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	p := model.Payoree{ID: c.nextID, Name: name}
	c.payorees = append(c.payorees, p)
	return p
}

// Fail makes the next n lookups return err. A nil err uses ErrBackend.
func (c *MemoryCatalog) Fail(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		err = ErrBackend
	}
	c.failures = n
	c.failWith = err
}

// Calls returns how many lookups were attempted.
func (c *MemoryCatalog) Calls() int {
	return int(c.calls.Load())
}

func (c *MemoryCatalog) injected() error {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures == 0 {
		return nil
	}
	if c.failures > 0 {
		c.failures--
	}
	return c.failWith
}

// LookupCategory matches names case-insensitively.
func (c *MemoryCatalog) LookupCategory(_ context.Context, name string) (model.Lookup[model.Category], error) {
	if err := c.injected(); err != nil {
		return model.Lookup[model.Category]{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var matches []model.Category
	for _, cat := range c.categories {
		if strings.EqualFold(cat.Name, name) {
			matches = append(matches, cat)
		}
	}
	return model.LookupFrom(matches), nil
}

// LookupPayoree matches names case-insensitively, then by normalized form.
func (c *MemoryCatalog) LookupPayoree(_ context.Context, name string) (model.Lookup[model.Payoree], error) {
	if err := c.injected(); err != nil {
		return model.Lookup[model.Payoree]{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var matches []model.Payoree
	for _, p := range c.payorees {
		if strings.EqualFold(p.Name, name) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		want := normalize.Normalize(name)
		for _, p := range c.payorees {
			if want != "" && normalize.Normalize(p.Name) == want {
				matches = append(matches, p)
			}
		}
	}
	return model.LookupFrom(matches), nil
}
