// Package journal turns finalized matches (and unmatched transactions)
// into balanced general-ledger posting lines.
package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

// ErrUnbalanced is returned when the generated lines would not conserve
// the transaction amount. No entries are ever posted in that case.
var ErrUnbalanced = errors.New("journal lines do not balance transaction amount")

// UnbalancedError carries the computed shortfall for operator reporting.
type UnbalancedError struct {
	TransactionID uuid.UUID
	Expected      decimal.Decimal
	Actual        decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journal lines for transaction %s sum to %s, expected %s (shortfall %s)",
		e.TransactionID, e.Actual, e.Expected, e.Expected.Sub(e.Actual))
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// Shortfall is the signed gap between the expected and generated totals.
func (e *UnbalancedError) Shortfall() decimal.Decimal {
	return e.Expected.Sub(e.Actual)
}

// Generator deterministically expands a transaction into ledger lines.
// Pure: persistence is the caller's concern.
type Generator struct {
	cfg       config.Journal
	tolerance decimal.Decimal
}

func NewGenerator(cfg config.Journal) *Generator {
	tol, err := decimal.NewFromString(cfg.Tolerance)
	if err != nil {
		tol = decimal.NewFromFloat(0.01)
	}
	return &Generator{cfg: cfg, tolerance: tol}
}

// Build emits the ordered ledger lines for one transaction.
//
// With a match and line items: one line per item in original order, amount
// from the item's net payment amount, item text "{invoice}/{reference}".
// The lines must conserve |transaction amount| within the tolerance or
// nothing is emitted and an UnbalancedError is returned.
//
// With a match but no line items: a single line over the advice total.
// Without a match: a single line over the raw transaction.
func (g *Generator) Build(
	tx *models.BankTransaction,
	match *models.Match,
	advice *models.RemittanceAdvice,
) ([]models.JournalEntry, error) {
	// A zero-amount transaction has nothing to post; emitting a line would
	// leave both debit and credit empty.
	if tx.Amount.IsZero() {
		return nil, nil
	}

	if match == nil || advice == nil {
		return []models.JournalEntry{
			g.entry(tx, nil, nil, 1, tx.Amount.Abs(), tx.CustomerReference),
		}, nil
	}

	if len(advice.LineItems) == 0 {
		return []models.JournalEntry{
			g.entry(tx, &match.ID, nil, 1, advice.TotalNetAmount.Abs(), advice.DocumentNumber),
		}, nil
	}

	expected := tx.Amount.Abs()
	sum := advice.LineItemSum()
	if sum.Sub(expected).Abs().Cmp(g.tolerance) > 0 {
		return nil, &UnbalancedError{
			TransactionID: tx.ID,
			Expected:      expected,
			Actual:        sum,
		}
	}

	entries := make([]models.JournalEntry, 0, len(advice.LineItems))
	for i := range advice.LineItems {
		li := &advice.LineItems[i]
		text := fmt.Sprintf("%s/%s", li.InvoiceNumber, li.ReferenceCode)
		entries = append(entries, g.entry(tx, &match.ID, &li.ID, i+1, li.NetPaymentAmount, text))
	}
	return entries, nil
}

func (g *Generator) entry(
	tx *models.BankTransaction,
	matchID, lineID *uuid.UUID,
	lineNumber int,
	amount decimal.Decimal,
	itemText string,
) models.JournalEntry {
	e := models.JournalEntry{
		ID:               uuid.New(),
		TransactionID:    tx.ID,
		MatchID:          matchID,
		RemittanceLineID: lineID,
		CompanyCode:      g.cfg.CompanyCode,
		PostingDate:      tx.BookingDate,
		DocumentDate:     tx.BookingDate,
		DocumentType:     g.cfg.DocumentType,
		LineNumber:       lineNumber,
		GLAccount:        g.cfg.GLAccount,
		Currency:         tx.Currency,
		ItemText:         itemText,
		CreatedAt:        time.Now(),
	}
	if e.Currency == "" {
		e.Currency = g.cfg.DefaultCurrency
	}
	// Outgoing money credits the account, incoming debits it. A negative
	// line amount (credit note) posts on the opposite side, so the posted
	// net still conserves the line sum.
	creditSide := tx.Amount.Sign() < 0
	if amount.Sign() < 0 {
		creditSide = !creditSide
		amount = amount.Neg()
	}
	if creditSide {
		e.Credit = amount
	} else {
		e.Debit = amount
	}
	return e
}
