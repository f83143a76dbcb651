package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Match statuses. A transaction without a match row is implicitly unmatched.
const (
	StatusUnmatched    = "unmatched"
	StatusAutoMatched  = "auto_matched"
	StatusManualReview = "manual_review"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
)

// Match types.
const (
	MatchAutoExact = "auto_exact"
	MatchAutoFuzzy = "auto_fuzzy"
	MatchManual    = "manual"
)

// Match links one bank transaction to at most one remittance advice, with
// the scoring breakdown that justified it. Version guards manual updates
// (optimistic concurrency).
type Match struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionID   uuid.UUID  `gorm:"uniqueIndex"`
	RemittanceID    uuid.UUID  `gorm:"index"`
	ConfidenceScore float64
	Status          string `gorm:"index"`
	MatchType       string
	TieBreakReason  string
	Details         datatypes.JSON
	Version         int `gorm:"default:1"`
	ApprovedBy      string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Finalized reports whether this match has permanently consumed its advice.
func (m *Match) Finalized() bool {
	return m.Status == StatusAutoMatched || m.Status == StatusApproved
}
