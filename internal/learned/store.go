// Package learned holds user-confirmed merchant associations in memory.
package learned

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// MemoryStore is an in-memory service.PatternStore.
// Upserts to the same signature are serialized; reads never block on writers of
// other signatures.
type MemoryStore struct {
	now     func() time.Time
	entries sync.Map // signature -> *entry
}

type entry struct {
	assoc *model.LearnedAssociation
	mu    sync.Mutex
}

var _ service.PatternStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty store with an injected clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

// Lookup returns a copy of the association for signature.
func (s *MemoryStore) Lookup(ctx context.Context, signature string) (*model.LearnedAssociation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, ok := s.entries.Load(signature)
	if !ok {
		return nil, fmt.Errorf("learned association %q: %w", signature, common.ErrNotFound)
	}

	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.assoc == nil {
		return nil, fmt.Errorf("learned association %q: %w", signature, common.ErrNotFound)
	}
	found := *e.assoc
	return &found, nil
}

// Upsert records a confirmation. The association always carries confidence 1.0
// and the current time.
func (s *MemoryStore) Upsert(ctx context.Context, signature, category, subcategory, payoree string) (*model.LearnedAssociation, error) {
	return s.Confirm(ctx, model.LearnedAssociation{
		Signature:   signature,
		Category:    category,
		Subcategory: subcategory,
		Payoree:     payoree,
		ConfirmedAt: s.now(),
	})
}

// Confirm stores assoc unless a newer confirmation for the same signature is
// already present, in which case the newer one is returned unchanged.
func (s *MemoryStore) Confirm(ctx context.Context, assoc model.LearnedAssociation) (*model.LearnedAssociation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(assoc.Signature, assoc.Category, assoc.Subcategory); err != nil {
		return nil, err
	}

	assoc.Confidence = model.LearnedConfidence
	if assoc.ConfirmedAt.IsZero() {
		assoc.ConfirmedAt = s.now()
	}

	v, _ := s.entries.LoadOrStore(assoc.Signature, &entry{})
	e := v.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.assoc != nil && e.assoc.ConfirmedAt.After(assoc.ConfirmedAt) {
		current := *e.assoc
		return &current, nil
	}

	stored := assoc
	e.assoc = &stored
	result := stored
	return &result, nil
}

// Len returns the number of stored associations.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if e.assoc != nil {
			n++
		}
		e.mu.Unlock()
		return true
	})
	return n
}

// Snapshot copies the current associations into an immutable reader.
func (s *MemoryStore) Snapshot() *Snapshot {
	var all []model.LearnedAssociation
	s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if e.assoc != nil {
			all = append(all, *e.assoc)
		}
		e.mu.Unlock()
		return true
	})
	return NewSnapshot(all)
}

// Validate checks the fields a confirmation must carry.
func Validate(signature, category, subcategory string) error {
	if strings.TrimSpace(signature) == "" {
		return fmt.Errorf("%w: signature is required", common.ErrInvalidConfig)
	}
	if strings.TrimSpace(category) == "" && strings.TrimSpace(subcategory) == "" {
		return fmt.Errorf("%w: category or subcategory is required", common.ErrInvalidConfig)
	}
	return nil
}
