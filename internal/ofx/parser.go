// Package ofx reads OFX/QFX statements into transaction records.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/sift/internal/model"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// genericNames are NAME values that carry no merchant; MEMO is used instead.
var genericNames = []string{"DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE"}

// Parser reads bank and credit card statements from OFX/QFX files.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocess fixes formatting issues that real bank exports trip ofxgo with.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile returns the records of every bank and credit card statement in
// the file. Explicit category and payoree are never set from OFX data.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.TransactionRecord, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var (
		records          []model.TransactionRecord
		bankStmts, cards int
	)

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			records = append(records, convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			cards++
			records = append(records, convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(records),
		"bank_statements", bankStmts,
		"cc_statements", cards)

	return records, nil
}

func convertList(list *ofxgo.TransactionList, accountID string) []model.TransactionRecord {
	if list == nil {
		return nil
	}
	records := make([]model.TransactionRecord, 0, len(list.Transactions))
	for _, tx := range list.Transactions {
		records = append(records, convertTransaction(tx, accountID))
	}
	return records
}

func convertTransaction(tx ofxgo.Transaction, accountID string) model.TransactionRecord {
	posted := tx.DtPosted.Time
	return model.TransactionRecord{
		Date:        time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromBigRat(&tx.TrnAmt.Rat, 2),
		Description: description(tx),
		AccountID:   accountID,
	}
}

// description prefers PAYEE, then NAME, then MEMO when NAME is generic.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || slices.Contains(genericNames, strings.ToUpper(name))) {
		return strings.TrimSpace(string(tx.Memo))
	}
	return name
}

// Accounts returns the distinct account IDs in the file, sorted.
func (p *Parser) Accounts(reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accounts = append(accounts, string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accounts = append(accounts, string(stmt.CCAcctFrom.AcctID))
		}
	}

	slices.Sort(accounts)
	return slices.Compact(accounts), nil
}
