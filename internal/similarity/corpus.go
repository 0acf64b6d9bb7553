package similarity

import (
	"sort"
	"time"

	"github.com/Veraticus/sift/internal/model"
)

// Corpus is a date-ordered, read-only view of committed history.
// It is built once per batch and shared by all workers.
type Corpus struct {
	records []model.HistoricalRecord
	window  time.Duration
}

// NewCorpus indexes records by date. A zero window disables date filtering.
func NewCorpus(records []model.HistoricalRecord, window time.Duration) *Corpus {
	sorted := make([]model.HistoricalRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Record.Date.Before(sorted[j].Record.Date)
	})
	return &Corpus{records: sorted, window: window}
}

// Len returns the number of indexed records.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Window returns the records whose amount has the same sign as rec and whose date
// lies within the corpus window on either side of rec's date.
func (c *Corpus) Window(rec model.TransactionRecord) []model.HistoricalRecord {
	if c == nil || len(c.records) == 0 {
		return nil
	}

	lo, hi := 0, len(c.records)
	if c.window > 0 {
		start := rec.Date.Add(-c.window)
		end := rec.Date.Add(c.window)
		lo = sort.Search(len(c.records), func(i int) bool {
			return !c.records[i].Record.Date.Before(start)
		})
		hi = sort.Search(len(c.records), func(i int) bool {
			return c.records[i].Record.Date.After(end)
		})
	}

	sign := rec.Amount.Sign()
	out := make([]model.HistoricalRecord, 0, hi-lo)
	for _, h := range c.records[lo:hi] {
		if h.Record.Amount.Sign() == sign {
			out = append(out, h)
		}
	}
	return out
}
