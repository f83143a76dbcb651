package journal

import (
	"log/slog"

	"github.com/google/uuid"

	"cash-application-backend/internal/models"
)

// Store persists journal entries. ReplaceForTransaction must swap the
// transaction's entries atomically so regeneration is replace-or-skip,
// never append.
type Store interface {
	ReplaceForTransaction(txID uuid.UUID, entries []models.JournalEntry) error
	EntriesByTransaction(txID uuid.UUID) ([]models.JournalEntry, error)
}

// Service wires the pure generator to the entry store.
type Service struct {
	gen   *Generator
	store Store
}

func NewService(gen *Generator, store Store) *Service {
	return &Service{gen: gen, store: store}
}

// Generate builds and persists the entries for one transaction. Re-running
// for the same transaction yields the same set, not duplicates. An
// UnbalancedError is passed through for the caller to demote the match.
func (s *Service) Generate(
	tx *models.BankTransaction,
	match *models.Match,
	advice *models.RemittanceAdvice,
) ([]models.JournalEntry, error) {
	entries, err := s.gen.Build(tx, match, advice)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceForTransaction(tx.ID, entries); err != nil {
		return nil, err
	}
	slog.Debug("journal entries written", "transaction", tx.ID, "count", len(entries))
	return entries, nil
}
