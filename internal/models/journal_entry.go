package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntry is one general-ledger posting line. Created once by the
// journal generator and never mutated; corrections are new reversing
// entries elsewhere.
type JournalEntry struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionID    uuid.UUID  `gorm:"index"`
	MatchID          *uuid.UUID `gorm:"index"` // nil for unmatched-transaction entries
	RemittanceLineID *uuid.UUID

	CompanyCode  string
	PostingDate  time.Time `gorm:"column:posting_date"`
	DocumentDate time.Time `gorm:"column:document_date"`
	DocumentType string
	LineNumber   int
	GLAccount    string          `gorm:"column:gl_account"`
	Debit        decimal.Decimal `gorm:"type:numeric(15,2)"`
	Credit       decimal.Decimal `gorm:"type:numeric(15,2)"`
	Currency     string          `gorm:"type:varchar(3)"`
	ItemText     string

	CreatedAt time.Time
}

// Amount returns whichever of debit/credit is populated.
func (e *JournalEntry) Amount() decimal.Decimal {
	if !e.Debit.IsZero() {
		return e.Debit
	}
	return e.Credit
}
