package repository

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cash-application-backend/internal/models"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// ReplaceForTransaction swaps a transaction's entries in one database
// transaction so regeneration never appends duplicates.
func (r *JournalRepository) ReplaceForTransaction(txID uuid.UUID, entries []models.JournalEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.JournalEntry{}, "transaction_id = ?", txID).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *JournalRepository) EntriesByTransaction(txID uuid.UUID) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.Where("transaction_id = ?", txID).Order("line_number").Find(&entries).Error
	return entries, err
}

// AllEntries returns every entry in posting order for listing and export.
func (r *JournalRepository) AllEntries() ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.Order("posting_date, transaction_id, line_number").Find(&entries).Error
	return entries, err
}

// Totals sums the debit and credit columns across all entries.
func (r *JournalRepository) Totals() (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	err := r.db.Model(&models.JournalEntry{}).
		Select("coalesce(sum(debit), 0) as debit, coalesce(sum(credit), 0) as credit").
		Scan(&row).Error
	return row.Debit, row.Credit, err
}
