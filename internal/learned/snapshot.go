package learned

import (
	"context"
	"fmt"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// Snapshot is a read-only copy of learned associations taken at the start of a
// batch. Corrections made while the batch runs are not visible to it.
type Snapshot struct {
	bySignature map[string]model.LearnedAssociation
}

var _ service.PatternStore = (*Snapshot)(nil)

// NewSnapshot indexes associations. When a signature repeats the most recently
// confirmed entry wins.
func NewSnapshot(associations []model.LearnedAssociation) *Snapshot {
	s := &Snapshot{bySignature: make(map[string]model.LearnedAssociation, len(associations))}
	for _, a := range associations {
		if current, ok := s.bySignature[a.Signature]; ok && current.ConfirmedAt.After(a.ConfirmedAt) {
			continue
		}
		s.bySignature[a.Signature] = a
	}
	return s
}

// Lookup returns the association for signature or common.ErrNotFound.
func (s *Snapshot) Lookup(_ context.Context, signature string) (*model.LearnedAssociation, error) {
	a, ok := s.bySignature[signature]
	if !ok {
		return nil, fmt.Errorf("learned association %q: %w", signature, common.ErrNotFound)
	}
	return &a, nil
}

// Upsert always fails; snapshots are read-only.
func (s *Snapshot) Upsert(_ context.Context, signature, _, _, _ string) (*model.LearnedAssociation, error) {
	return nil, fmt.Errorf("upsert %q: %w", signature, common.ErrReadOnly)
}

// Len returns the number of associations.
func (s *Snapshot) Len() int {
	return len(s.bySignature)
}
