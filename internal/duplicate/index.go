// Package duplicate detects exact repeats of previously committed transactions.
package duplicate

import (
	"sync"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
)

// bucketKey groups fingerprints by calendar date and amount.
type bucketKey struct {
	date   string
	amount string
}

// Index is a (date, amount) bucketed set of fingerprints. Build it once per
// batch; each check is then a map lookup plus a scan of a tiny bucket.
// It is safe for concurrent use.
type Index struct {
	buckets map[bucketKey][]model.Fingerprint
	mu      sync.RWMutex
	size    int
}

// NewIndex indexes existing fingerprints.
func NewIndex(existing []model.Fingerprint) *Index {
	idx := &Index{buckets: make(map[bucketKey][]model.Fingerprint, len(existing))}
	for _, fp := range existing {
		idx.insert(fp)
	}
	return idx
}

// FingerprintOf derives the duplicate-detection fingerprint of a record.
// Amounts are compared at the two decimal places they are stored with.
func FingerprintOf(rec model.TransactionRecord) model.Fingerprint {
	return model.Fingerprint{
		Date:                  rec.CalendarDate(),
		Amount:                rec.Amount.Round(2),
		NormalizedDescription: normalize.Normalize(rec.Description),
		AccountID:             rec.AccountID,
	}
}

func keyOf(fp model.Fingerprint) bucketKey {
	return bucketKey{date: fp.Date, amount: fp.Amount.StringFixed(2)}
}

// IsDuplicate reports whether rec matches an indexed fingerprint exactly:
// same calendar date, amount, normalized description, and account.
func (i *Index) IsDuplicate(rec model.TransactionRecord) bool {
	fp := FingerprintOf(rec)

	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.contains(fp)
}

// Add indexes rec so later repeats within the batch are detected.
func (i *Index) Add(rec model.TransactionRecord) {
	fp := FingerprintOf(rec)

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.contains(fp) {
		i.insert(fp)
	}
}

// CheckAndAdd reports whether rec is a duplicate and indexes it if it is not.
func (i *Index) CheckAndAdd(rec model.TransactionRecord) bool {
	fp := FingerprintOf(rec)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.contains(fp) {
		return true
	}
	i.insert(fp)
	return false
}

// Len returns the number of distinct fingerprints.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.size
}

func (i *Index) contains(fp model.Fingerprint) bool {
	for _, existing := range i.buckets[keyOf(fp)] {
		if existing.Equal(fp) {
			return true
		}
	}
	return false
}

func (i *Index) insert(fp model.Fingerprint) {
	key := keyOf(fp)
	i.buckets[key] = append(i.buckets[key], fp)
	i.size++
}
