package learned

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/model"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore() *MemoryStore {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMemoryStoreWithClock(clock.Now)
}

func TestMemoryStore_LookupMissing(t *testing.T) {
	s := newTestStore()
	_, err := s.Lookup(context.Background(), "STARBUCKS")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	first, err := s.Upsert(ctx, "STARBUCKS", "Dining", "Coffee", "Starbucks")
	require.NoError(t, err)
	assert.Equal(t, model.LearnedConfidence, first.Confidence)

	second, err := s.Upsert(ctx, "STARBUCKS", "Food", "Coffee Shops", "Starbucks Corp")
	require.NoError(t, err)
	assert.True(t, second.ConfirmedAt.After(first.ConfirmedAt))

	got, err := s.Lookup(ctx, "STARBUCKS")
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "Coffee Shops", got.Subcategory)
	assert.Equal(t, "Starbucks Corp", got.Payoree)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_OlderConfirmationLoses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Confirm(ctx, model.LearnedAssociation{Signature: "SHELL", Category: "Gas", ConfirmedAt: newer})
	require.NoError(t, err)

	got, err := s.Confirm(ctx, model.LearnedAssociation{Signature: "SHELL", Category: "Snacks", ConfirmedAt: newer.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Gas", got.Category)

	stored, err := s.Lookup(ctx, "SHELL")
	require.NoError(t, err)
	assert.Equal(t, "Gas", stored.Category)
}

func TestMemoryStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tests := []struct {
		name        string
		signature   string
		category    string
		subcategory string
		wantErr     bool
	}{
		{name: "valid", signature: "NETFLIX", category: "Entertainment"},
		{name: "subcategory only", signature: "HULU", subcategory: "Subscriptions"},
		{name: "missing signature", signature: " ", category: "Entertainment", wantErr: true},
		{name: "missing category", signature: "NETFLIX", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Upsert(ctx, tt.signature, tt.category, tt.subcategory, "")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_, err := s.Upsert(ctx, "NETFLIX", "Entertainment", "", "")
	require.NoError(t, err)

	got, err := s.Lookup(ctx, "NETFLIX")
	require.NoError(t, err)
	got.Category = "Mutated"

	again, err := s.Lookup(ctx, "NETFLIX")
	require.NoError(t, err)
	assert.Equal(t, "Entertainment", again.Category)
}

func TestMemoryStore_ConcurrentUpsertsSameSignature(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		latest time.Time
	)
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := s.Upsert(ctx, "AMAZON", fmt.Sprintf("Category %d", i), "", "")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			if got.ConfirmedAt.After(latest) {
				latest = got.ConfirmedAt
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	got, err := s.Lookup(ctx, "AMAZON")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, latest, got.ConfirmedAt, "most recent confirmation wins")
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestStore()
	_, err := s.Upsert(ctx, "NETFLIX", "Entertainment", "", "")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Lookup(ctx, "NETFLIX")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	snap := NewSnapshot([]model.LearnedAssociation{
		{Signature: "STARBUCKS", Category: "Dining", ConfirmedAt: base.Add(time.Hour)},
		{Signature: "STARBUCKS", Category: "Old", ConfirmedAt: base},
		{Signature: "SHELL", Category: "Gas", ConfirmedAt: base},
	})
	assert.Equal(t, 2, snap.Len())

	got, err := snap.Lookup(ctx, "STARBUCKS")
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Category)

	_, err = snap.Lookup(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = snap.Upsert(ctx, "SHELL", "Gas", "", "")
	assert.ErrorIs(t, err, common.ErrReadOnly)
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_, err := s.Upsert(ctx, "NETFLIX", "Entertainment", "", "")
	require.NoError(t, err)

	snap := s.Snapshot()
	_, err = s.Upsert(ctx, "NETFLIX", "Streaming", "", "")
	require.NoError(t, err)

	got, err := snap.Lookup(ctx, "NETFLIX")
	require.NoError(t, err)
	assert.Equal(t, "Entertainment", got.Category)
}
