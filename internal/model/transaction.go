package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for fingerprints and storage.
const DateLayout = "2006-01-02"

// TransactionRecord is a single imported row handed to the engine.
// The CSV fields are empty when the source did not supply them. CSVCategory
// names the parent of CSVSubcategory when both are set.
type TransactionRecord struct {
	Date           time.Time
	Amount         decimal.Decimal
	Description    string
	AccountID      string
	CSVCategory    string
	CSVSubcategory string
	CSVPayoree     string
}

// HasCSVCategory reports whether the row carries an explicit category or subcategory name.
func (t TransactionRecord) HasCSVCategory() bool {
	return t.CSVCategory != "" || t.CSVSubcategory != ""
}

// HasCSVPayoree reports whether the row carries an explicit payoree name.
func (t TransactionRecord) HasCSVPayoree() bool {
	return t.CSVPayoree != ""
}

// CalendarDate returns the record date formatted as YYYY-MM-DD.
func (t TransactionRecord) CalendarDate() string {
	return t.Date.Format(DateLayout)
}

// String implements fmt.Stringer for log output.
func (t TransactionRecord) String() string {
	return fmt.Sprintf("%s %s %q [%s]", t.CalendarDate(), t.Amount.StringFixed(2), t.Description, t.AccountID)
}

// HistoricalRecord is a previously committed transaction with its final categorization.
// It is the unit of the similarity corpus.
type HistoricalRecord struct {
	Record                TransactionRecord
	ID                    string
	NormalizedDescription string
	Category              string
	Subcategory           string
	Payoree               string
}

// Fingerprint identifies a transaction for exact duplicate detection.
type Fingerprint struct {
	Date                  string
	Amount                decimal.Decimal
	NormalizedDescription string
	AccountID             string
}

// Equal reports whether two fingerprints match on every field with no tolerance.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Date == other.Date &&
		f.Amount.Equal(other.Amount) &&
		f.NormalizedDescription == other.NormalizedDescription &&
		f.AccountID == other.AccountID
}
