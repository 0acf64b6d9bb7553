// Package csvimport reads bank CSV exports into transaction records.
package csvimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/sift/internal/model"
)

// ErrMissingColumn means the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// headerAliases maps a lower-cased header to the field it fills.
var headerAliases = map[string]string{
	"date":             "date",
	"posted date":      "date",
	"posting date":     "date",
	"transaction date": "date",
	"amount":           "amount",
	"debit":            "debit",
	"withdrawal":       "debit",
	"credit":           "credit",
	"deposit":          "credit",
	"description":      "description",
	"name":             "description",
	"memo":             "description",
	"details":          "description",
	"account":          "account",
	"account id":       "account",
	"category":         "category",
	"subcategory":      "subcategory",
	"payoree":          "payoree",
	"payee":            "payoree",
	"merchant":         "payoree",
}

// DefaultDateLayouts are tried in order for every date cell.
var DefaultDateLayouts = []string{
	model.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
}

// Options configures a Reader.
type Options struct {
	// AccountID is used when the file has no account column.
	AccountID   string
	DateLayouts []string
	Delimiter   rune
}

// RowError reports a line that could not be converted.
type RowError struct {
	Err  error
	Line int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader converts CSV rows into transaction records. Category, subcategory
// and payoree cells become the explicit CSV fields.
type Reader struct {
	opts Options
}

// NewReader creates a CSV reader.
func NewReader(opts Options) *Reader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = DefaultDateLayouts
	}
	return &Reader{opts: opts}
}

type mapping struct {
	columns map[string]int
}

func (m mapping) has(field string) bool {
	_, ok := m.columns[field]
	return ok
}

func (m mapping) get(row []string, field string) string {
	idx, ok := m.columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Read parses every data row. Malformed rows are skipped and returned as
// RowErrors alongside the records that did parse.
func (r *Reader) Read(ctx context.Context, in io.Reader) ([]model.TransactionRecord, []*RowError, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = r.opts.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	m, err := mapHeader(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []model.TransactionRecord
		rowErrs []*RowError
	)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		line++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		if isBlank(row) {
			continue
		}

		rec, err := r.convert(m, row)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}

	slog.Info("Parsed CSV file", "records", len(records), "skipped", len(rowErrs))
	return records, rowErrs, nil
}

func mapHeader(header []string) (mapping, error) {
	m := mapping{columns: make(map[string]int)}
	for i, h := range header {
		field, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, seen := m.columns[field]; !seen {
			m.columns[field] = i
		}
	}

	if !m.has("date") {
		return m, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	if !m.has("description") {
		return m, fmt.Errorf("%w: description", ErrMissingColumn)
	}
	if !m.has("amount") && (!m.has("debit") || !m.has("credit")) {
		return m, fmt.Errorf("%w: amount or debit/credit", ErrMissingColumn)
	}
	return m, nil
}

func (r *Reader) convert(m mapping, row []string) (model.TransactionRecord, error) {
	date, err := r.parseDate(m.get(row, "date"))
	if err != nil {
		return model.TransactionRecord{}, err
	}

	amount, err := rowAmount(m, row)
	if err != nil {
		return model.TransactionRecord{}, err
	}

	account := m.get(row, "account")
	if account == "" {
		account = r.opts.AccountID
	}

	return model.TransactionRecord{
		Date:           date,
		Amount:         amount,
		Description:    m.get(row, "description"),
		AccountID:      account,
		CSVCategory:    m.get(row, "category"),
		CSVSubcategory: m.get(row, "subcategory"),
		CSVPayoree:     m.get(row, "payoree"),
	}, nil
}

func (r *Reader) parseDate(value string) (time.Time, error) {
	for _, layout := range r.opts.DateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func rowAmount(m mapping, row []string) (decimal.Decimal, error) {
	if m.has("amount") {
		if value := m.get(row, "amount"); value != "" {
			return ParseAmount(value)
		}
	}

	debit, credit := m.get(row, "debit"), m.get(row, "credit")
	switch {
	case debit != "":
		d, err := ParseAmount(debit)
		if err != nil {
			return decimal.Zero, err
		}
		return d.Abs().Neg(), nil
	case credit != "":
		c, err := ParseAmount(credit)
		if err != nil {
			return decimal.Zero, err
		}
		return c.Abs(), nil
	default:
		return decimal.Zero, errors.New("missing amount")
	}
}

// ParseAmount accepts "-12.50", "$1,234.00" and accounting "(12.50)". The
// result is rounded to cents.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	cleaned = strings.NewReplacer("$", "", ",", "", " ", "").Replace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if negative {
		amount = amount.Abs().Neg()
	}
	return amount.Round(2), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
