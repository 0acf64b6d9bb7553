package engine

import (
	"errors"
	"fmt"

	"github.com/Veraticus/sift/internal/model"
)

// ErrInvalidRecord is returned for records the engine cannot process at all.
var ErrInvalidRecord = errors.New("invalid transaction record")

// RowError aborts categorization of a single row. The batch continues.
type RowError struct {
	Err    error
	Record model.TransactionRecord
	Code   model.ErrorCode
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %s: %s: %v", e.Record, e.Code, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ValidateRecord rejects records that are malformed rather than merely unmatched.
func ValidateRecord(rec model.TransactionRecord) error {
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidRecord)
	}
	return nil
}
