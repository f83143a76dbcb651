package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankTransaction is one bank statement line, already normalized by the
// ingestion side. Immutable once created; the matching core only reads it.
type BankTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingDate       time.Time       `gorm:"column:booking_date"`
	Amount            decimal.Decimal `gorm:"type:numeric(15,2)"` // signed: < 0 outgoing, > 0 incoming
	Currency          string          `gorm:"type:varchar(3)"`
	PayerName         string
	CustomerReference string `gorm:"index"`
	Purpose           string
	CreatedAt         time.Time
}
