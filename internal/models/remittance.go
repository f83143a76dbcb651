package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Remittance advice consumption states. An advice is claimed exactly once,
// by the finalized match that consumes it.
const (
	AdviceUnconsumed = "unconsumed"
	AdviceConsumed   = "consumed"
)

// RemittanceAdvice is a payer-issued document listing the invoices paid in
// one transfer. Read-only to the core except for the consumption marker.
type RemittanceAdvice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentNumber string          `gorm:"index"`
	SenderName     string
	DocumentDate   time.Time       `gorm:"column:document_date"`
	TotalNetAmount decimal.Decimal `gorm:"type:numeric(15,2)"`
	Currency       string          `gorm:"type:varchar(3)"`
	Status         string          `gorm:"index;default:unconsumed"`
	ConsumedBy     *uuid.UUID      // match that claimed this advice
	LineItems      []RemittanceLineItem `gorm:"foreignKey:RemittanceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
}

// LineItemSum adds up the net payment amounts of all line items.
func (r *RemittanceAdvice) LineItemSum() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range r.LineItems {
		sum = sum.Add(li.NetPaymentAmount)
	}
	return sum
}

// RemittanceLineItem is a single invoice position within an advice.
type RemittanceLineItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RemittanceID     uuid.UUID       `gorm:"index"`
	Position         int             // order within the advice, 1-based
	InvoiceNumber    string
	ReferenceCode    string
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(15,2)"` // skonto
	GrossAmount      decimal.Decimal `gorm:"type:numeric(15,2)"`
	NetPaymentAmount decimal.Decimal `gorm:"type:numeric(15,2)"`
	CreatedAt        time.Time
}
