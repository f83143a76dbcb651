package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"cash-application-backend/internal/models"
)

type RemittanceRepository struct {
	db *gorm.DB
}

func NewRemittanceRepository(db *gorm.DB) *RemittanceRepository {
	return &RemittanceRepository{db: db}
}

func (r *RemittanceRepository) Create(adv *models.RemittanceAdvice) error {
	return r.db.Create(adv).Error
}

// Advices returns the full advice pool with line items loaded in their
// original order.
func (r *RemittanceRepository) Advices() ([]*models.RemittanceAdvice, error) {
	var advs []*models.RemittanceAdvice
	err := r.db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Order("document_date, document_number").
		Find(&advs).Error
	return advs, err
}

func (r *RemittanceRepository) AdviceByID(id uuid.UUID) (*models.RemittanceAdvice, error) {
	var adv models.RemittanceAdvice
	err := r.db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		First(&adv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &adv, nil
}
