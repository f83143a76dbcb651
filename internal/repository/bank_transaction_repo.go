package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"cash-application-backend/internal/models"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

func (r *BankTransactionRepository) Create(tx *models.BankTransaction) error {
	return r.db.Create(tx).Error
}

// Transactions returns the full transaction set in a stable order.
func (r *BankTransactionRepository) Transactions() ([]*models.BankTransaction, error) {
	var txs []*models.BankTransaction
	err := r.db.Order("booking_date, id").Find(&txs).Error
	return txs, err
}

func (r *BankTransactionRepository) GetByID(id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	if err := r.db.First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
