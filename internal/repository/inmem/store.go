// Package inmem provides an in-memory store implementing the service
// collaborator interfaces. Used by tests and anywhere a database is not
// wanted.
package inmem

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"cash-application-backend/internal/models"
	"cash-application-backend/internal/services/ledger"
)

type Store struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*models.BankTransaction
	advices      map[uuid.UUID]*models.RemittanceAdvice
	matches      map[uuid.UUID]*models.Match
	entries      map[uuid.UUID][]models.JournalEntry // keyed by transaction
	audits       []models.MatchAuditLog
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[uuid.UUID]*models.BankTransaction),
		advices:      make(map[uuid.UUID]*models.RemittanceAdvice),
		matches:      make(map[uuid.UUID]*models.Match),
		entries:      make(map[uuid.UUID][]models.JournalEntry),
	}
}

// seeding

func (s *Store) AddTransaction(tx *models.BankTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
}

func (s *Store) AddAdvice(adv *models.RemittanceAdvice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if adv.Status == "" {
		adv.Status = models.AdviceUnconsumed
	}
	s.advices[adv.ID] = adv
}

// processing sources

func (s *Store) Transactions() ([]*models.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.BankTransaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.Before(out[j].BookingDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) Advices() ([]*models.RemittanceAdvice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.RemittanceAdvice, 0, len(s.advices))
	for _, adv := range s.advices {
		out = append(out, adv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocumentNumber < out[j].DocumentNumber
	})
	return out, nil
}

func (s *Store) AdviceByID(id uuid.UUID) (*models.RemittanceAdvice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adv, ok := s.advices[id]
	if !ok {
		return nil, fmt.Errorf("advice %s not found", id)
	}
	return adv, nil
}

// ledger.Store

func (s *Store) MatchByTransaction(txID uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.TransactionID == txID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) MatchByID(id uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s not found", id)
	}
	cp := *m
	return &cp, nil
}

func (s *Store) CreateMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *Store) UpdateMatch(m *models.Match, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.matches[m.ID]
	if !ok {
		return fmt.Errorf("match %s not found", m.ID)
	}
	if stored.Version != expectedVersion {
		return ledger.ErrStaleVersion
	}
	cp := *m
	cp.Version = expectedVersion + 1
	s.matches[m.ID] = &cp
	m.Version = cp.Version
	return nil
}

func (s *Store) DeleteMatch(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *Store) ClaimAdvice(adviceID, matchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adv, ok := s.advices[adviceID]
	if !ok {
		return fmt.Errorf("advice %s not found", adviceID)
	}
	if adv.Status == models.AdviceConsumed {
		if adv.ConsumedBy != nil && *adv.ConsumedBy == matchID {
			return nil
		}
		return ledger.ErrAdviceConsumed
	}
	adv.Status = models.AdviceConsumed
	adv.ConsumedBy = &matchID
	return nil
}

func (s *Store) ReleaseAdvice(adviceID, matchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adv, ok := s.advices[adviceID]
	if !ok {
		return nil
	}
	if adv.ConsumedBy != nil && *adv.ConsumedBy == matchID {
		adv.Status = models.AdviceUnconsumed
		adv.ConsumedBy = nil
	}
	return nil
}

func (s *Store) ConsumedAdviceIDs() (map[uuid.UUID]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for id, adv := range s.advices {
		if adv.Status == models.AdviceConsumed {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) AppendAudit(entry *models.MatchAuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, *entry)
	return nil
}

// AuditLog returns a copy of the recorded audit entries.
func (s *Store) AuditLog() []models.MatchAuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MatchAuditLog, len(s.audits))
	copy(out, s.audits)
	return out
}

// journal.Store

func (s *Store) ReplaceForTransaction(txID uuid.UUID, entries []models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.JournalEntry, len(entries))
	copy(cp, entries)
	s.entries[txID] = cp
	return nil
}

func (s *Store) EntriesByTransaction(txID uuid.UUID) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.JournalEntry, len(s.entries[txID]))
	copy(cp, s.entries[txID])
	return cp, nil
}
