// Package testutil provides builders and in-memory collaborators for tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/normalize"
)

// Date parses a YYYY-MM-DD date in UTC and panics on malformed input.
func Date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad date %q: %v", s, err))
	}
	return d
}

// Amount parses a decimal amount and panics on malformed input.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RecordBuilder builds transaction records with sensible defaults.
type RecordBuilder struct {
	rec model.TransactionRecord
}

// NewRecord starts a record dated 2025-01-05 for -10.00 on account "checking".
func NewRecord(description string) *RecordBuilder {
	return &RecordBuilder{rec: model.TransactionRecord{
		Date:        Date("2025-01-05"),
		Amount:      Amount("-10.00"),
		Description: description,
		AccountID:   "checking",
	}}
}

// On sets the date.
func (b *RecordBuilder) On(date string) *RecordBuilder {
	b.rec.Date = Date(date)
	return b
}

// For sets the amount.
func (b *RecordBuilder) For(amount string) *RecordBuilder {
	b.rec.Amount = Amount(amount)
	return b
}

// InAccount sets the account.
func (b *RecordBuilder) InAccount(account string) *RecordBuilder {
	b.rec.AccountID = account
	return b
}

// WithCSV sets explicit category and payoree names.
func (b *RecordBuilder) WithCSV(category, payoree string) *RecordBuilder {
	b.rec.CSVCategory = category
	b.rec.CSVPayoree = payoree
	return b
}

// WithCSVSubcategory sets an explicit subcategory and its parent.
func (b *RecordBuilder) WithCSVSubcategory(parent, subcategory string) *RecordBuilder {
	b.rec.CSVCategory = parent
	b.rec.CSVSubcategory = subcategory
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() model.TransactionRecord {
	return b.rec
}

// History builds a committed record with its final categorization.
func History(id string, rec model.TransactionRecord, category, subcategory, payoree string) model.HistoricalRecord {
	return model.HistoricalRecord{
		ID:                    id,
		Record:                rec,
		NormalizedDescription: normalize.Normalize(rec.Description),
		Category:              category,
		Subcategory:           subcategory,
		Payoree:               payoree,
	}
}
