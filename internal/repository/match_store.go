package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cash-application-backend/internal/models"
	"cash-application-backend/internal/services/ledger"
)

// MatchStore is the gorm-backed ledger.Store. Version and advice updates
// are compare-and-set: the WHERE clause carries the expected state and a
// zero rows-affected count means somebody else got there first.
type MatchStore struct {
	db *gorm.DB
}

func NewMatchStore(db *gorm.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) MatchByTransaction(txID uuid.UUID) (*models.Match, error) {
	var m models.Match
	err := s.db.First(&m, "transaction_id = ?", txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) MatchByID(id uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) CreateMatch(m *models.Match) error {
	return s.db.Create(m).Error
}

func (s *MatchStore) UpdateMatch(m *models.Match, expectedVersion int) error {
	res := s.db.Model(&models.Match{}).
		Where("id = ? AND version = ?", m.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":      m.Status,
			"match_type":  m.MatchType,
			"approved_by": m.ApprovedBy,
			"approved_at": m.ApprovedAt,
			"version":     expectedVersion + 1,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrStaleVersion
	}
	m.Version = expectedVersion + 1
	return nil
}

func (s *MatchStore) DeleteMatch(id uuid.UUID) error {
	return s.db.Delete(&models.Match{}, "id = ?", id).Error
}

func (s *MatchStore) ClaimAdvice(adviceID, matchID uuid.UUID) error {
	res := s.db.Model(&models.RemittanceAdvice{}).
		Where("id = ? AND status = ?", adviceID, models.AdviceUnconsumed).
		Updates(map[string]interface{}{
			"status":      models.AdviceConsumed,
			"consumed_by": matchID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Claiming twice for the same match is a no-op.
		var adv models.RemittanceAdvice
		if err := s.db.Select("consumed_by").First(&adv, "id = ?", adviceID).Error; err != nil {
			return err
		}
		if adv.ConsumedBy != nil && *adv.ConsumedBy == matchID {
			return nil
		}
		return ledger.ErrAdviceConsumed
	}
	return nil
}

func (s *MatchStore) ReleaseAdvice(adviceID, matchID uuid.UUID) error {
	return s.db.Model(&models.RemittanceAdvice{}).
		Where("id = ? AND consumed_by = ?", adviceID, matchID).
		Updates(map[string]interface{}{
			"status":      models.AdviceUnconsumed,
			"consumed_by": nil,
		}).Error
}

func (s *MatchStore) ConsumedAdviceIDs() (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.RemittanceAdvice{}).
		Where("status = ?", models.AdviceConsumed).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *MatchStore) AppendAudit(entry *models.MatchAuditLog) error {
	return s.db.Create(entry).Error
}

// ListMatches returns matches filtered by status, newest first.
func (s *MatchStore) ListMatches(status string) ([]models.Match, error) {
	var matches []models.Match
	q := s.db.Order("created_at DESC")
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&matches).Error
	return matches, err
}

// CountByStatus returns the number of matches in each status.
func (s *MatchStore) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.Model(&models.Match{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
