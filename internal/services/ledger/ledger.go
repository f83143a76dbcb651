// Package ledger owns the match state machine. It enforces that a
// remittance advice is consumed by at most one finalized match, that
// re-runs are idempotent, and that manual transitions are guarded by
// optimistic concurrency.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cash-application-backend/internal/models"
	"cash-application-backend/internal/services/matching"
)

var (
	// ErrStaleVersion is returned when a manual update presents a version
	// that no longer matches the stored match.
	ErrStaleVersion = errors.New("stale match version")

	// ErrAdviceConsumed is returned when an advice is already claimed by
	// another finalized match.
	ErrAdviceConsumed = errors.New("remittance advice already consumed")

	// ErrInvalidTransition is returned for a state change the match state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid match state transition")
)

// validTransitions is the explicit match state machine. Anything not
// listed here is rejected, never overwritten silently.
var validTransitions = map[string][]string{
	models.StatusAutoMatched:  {models.StatusApproved, models.StatusRejected},
	models.StatusManualReview: {models.StatusApproved, models.StatusRejected},
	models.StatusRejected:     {models.StatusManualReview, models.StatusUnmatched},
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to string) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Store is the persistence collaborator behind the ledger. Implementations
// must make UpdateMatch and ClaimAdvice atomic compare-and-set operations.
type Store interface {
	MatchByTransaction(txID uuid.UUID) (*models.Match, error) // nil when none exists
	MatchByID(id uuid.UUID) (*models.Match, error)
	CreateMatch(m *models.Match) error
	// UpdateMatch persists m only if the stored version equals
	// expectedVersion, incrementing the version; otherwise ErrStaleVersion.
	UpdateMatch(m *models.Match, expectedVersion int) error
	DeleteMatch(id uuid.UUID) error
	// ClaimAdvice atomically marks an unconsumed advice as consumed by
	// matchID, or returns ErrAdviceConsumed.
	ClaimAdvice(adviceID, matchID uuid.UUID) error
	// ReleaseAdvice undoes a claim held by matchID.
	ReleaseAdvice(adviceID, matchID uuid.UUID) error
	ConsumedAdviceIDs() (map[uuid.UUID]bool, error)
	AppendAudit(entry *models.MatchAuditLog) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// ConsumedAdviceIDs exposes the consumption markers for candidate
// selection.
func (l *Ledger) ConsumedAdviceIDs() (map[uuid.UUID]bool, error) {
	return l.store.ConsumedAdviceIDs()
}

// MatchByID fetches a single match.
func (l *Ledger) MatchByID(id uuid.UUID) (*models.Match, error) {
	return l.store.MatchByID(id)
}

// MatchByTransaction fetches the match for a transaction, nil when the
// transaction is unmatched.
func (l *Ledger) MatchByTransaction(txID uuid.UUID) (*models.Match, error) {
	return l.store.MatchByTransaction(txID)
}

// Record persists the decision for one transaction.
//
// Re-running against an already finalized match is a no-op unless force is
// set, in which case the previous match is discarded (its advice released)
// and the new decision applied. An auto-match claims its advice via
// compare-and-set; losing that race surfaces ErrAdviceConsumed so the
// caller can exclude the advice and re-decide.
func (l *Ledger) Record(dec matching.Decision, force bool) (*models.Match, error) {
	existing, err := l.store.MatchByTransaction(dec.Transaction.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Finalized() && !force {
			slog.Debug("skipping finalized match", "transaction", dec.Transaction.ID, "status", existing.Status)
			return existing, nil
		}
		if err := l.discard(existing, "superseded by re-run"); err != nil {
			return nil, err
		}
	}

	if dec.Status == models.StatusUnmatched {
		return nil, nil
	}

	m := &models.Match{
		ID:              uuid.New(),
		TransactionID:   dec.Transaction.ID,
		RemittanceID:    dec.Advice.ID,
		ConfidenceScore: dec.Breakdown.Total,
		Status:          dec.Status,
		MatchType:       dec.MatchType,
		TieBreakReason:  dec.TieBreakReason,
		Version:         1,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if details, err := json.Marshal(dec.Breakdown); err == nil {
		m.Details = details
	}

	// Only finalized matches consume the advice. A manual-review match
	// claims it later, at approval time.
	if dec.Status == models.StatusAutoMatched {
		if err := l.store.ClaimAdvice(dec.Advice.ID, m.ID); err != nil {
			return nil, fmt.Errorf("claim advice %s: %w", dec.Advice.ID, err)
		}
	}

	if err := l.store.CreateMatch(m); err != nil {
		if dec.Status == models.StatusAutoMatched {
			_ = l.store.ReleaseAdvice(dec.Advice.ID, m.ID)
		}
		return nil, err
	}

	l.audit(m, "decision", models.StatusUnmatched, m.Status, "matcher", dec.TieBreakReason)
	return m, nil
}

// Approve moves a match to approved on behalf of an operator. The version
// must be the one the operator last observed. Approving a manual-review
// match claims the advice at this point.
func (l *Ledger) Approve(matchID uuid.UUID, version int, actor string) (*models.Match, error) {
	m, err := l.store.MatchByID(matchID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(m.Status, models.StatusApproved) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, models.StatusApproved)
	}

	claimed := false
	if m.Status == models.StatusManualReview {
		if err := l.store.ClaimAdvice(m.RemittanceID, m.ID); err != nil {
			return nil, fmt.Errorf("claim advice %s: %w", m.RemittanceID, err)
		}
		claimed = true
		m.MatchType = models.MatchManual
	}

	prev := m.Status
	now := time.Now()
	m.Status = models.StatusApproved
	m.ApprovedBy = actor
	m.ApprovedAt = &now
	if err := l.store.UpdateMatch(m, version); err != nil {
		if claimed {
			_ = l.store.ReleaseAdvice(m.RemittanceID, m.ID)
		}
		return nil, err
	}

	l.audit(m, "approve", prev, m.Status, actor, "")
	return m, nil
}

// Reject moves a match to rejected and releases its advice if held.
func (l *Ledger) Reject(matchID uuid.UUID, version int, actor, reason string) (*models.Match, error) {
	m, err := l.store.MatchByID(matchID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(m.Status, models.StatusRejected) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, models.StatusRejected)
	}

	prev := m.Status
	m.Status = models.StatusRejected
	if err := l.store.UpdateMatch(m, version); err != nil {
		return nil, err
	}
	_ = l.store.ReleaseAdvice(m.RemittanceID, m.ID)

	l.audit(m, "reject", prev, m.Status, actor, reason)
	return m, nil
}

// Requeue puts a rejected match back into manual review.
func (l *Ledger) Requeue(matchID uuid.UUID, version int, actor string) (*models.Match, error) {
	m, err := l.store.MatchByID(matchID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(m.Status, models.StatusManualReview) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, models.StatusManualReview)
	}

	prev := m.Status
	m.Status = models.StatusManualReview
	if err := l.store.UpdateMatch(m, version); err != nil {
		return nil, err
	}

	l.audit(m, "requeue", prev, m.Status, actor, "")
	return m, nil
}

// Clear removes a rejected match entirely; its transaction becomes
// unmatched again.
func (l *Ledger) Clear(matchID uuid.UUID, version int, actor string) error {
	m, err := l.store.MatchByID(matchID)
	if err != nil {
		return err
	}
	if !CanTransition(m.Status, models.StatusUnmatched) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, models.StatusUnmatched)
	}
	if m.Version != version {
		return ErrStaleVersion
	}

	if err := l.discard(m, "cleared by operator"); err != nil {
		return err
	}
	l.audit(m, "clear", m.Status, models.StatusUnmatched, actor, "")
	return nil
}

// Demote forces a match into manual review regardless of its current
// status. Used when journal generation finds the match unbalanced: a
// match that cannot be posted must not stay auto-matched.
func (l *Ledger) Demote(matchID uuid.UUID, reason string) (*models.Match, error) {
	m, err := l.store.MatchByID(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.StatusManualReview {
		return m, nil
	}

	prev := m.Status
	m.Status = models.StatusManualReview
	if err := l.store.UpdateMatch(m, m.Version); err != nil {
		return nil, err
	}
	_ = l.store.ReleaseAdvice(m.RemittanceID, m.ID)

	l.audit(m, "demote", prev, m.Status, "journal", reason)
	return m, nil
}

func (l *Ledger) discard(m *models.Match, reason string) error {
	if err := l.store.DeleteMatch(m.ID); err != nil {
		return err
	}
	_ = l.store.ReleaseAdvice(m.RemittanceID, m.ID)
	slog.Debug("discarded match", "match", m.ID, "reason", reason)
	return nil
}

func (l *Ledger) audit(m *models.Match, action, prev, next, actor, reason string) {
	err := l.store.AppendAudit(&models.MatchAuditLog{
		ID:             uuid.New(),
		MatchID:        m.ID,
		TransactionID:  m.TransactionID,
		Action:         action,
		PreviousStatus: prev,
		NewStatus:      next,
		PerformedBy:    actor,
		Reason:         reason,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		slog.Warn("failed to write audit entry", "match", m.ID, "action", action, "error", err)
	}
}
