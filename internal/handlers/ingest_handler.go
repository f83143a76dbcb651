package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cash-application-backend/internal/models"
	"cash-application-backend/internal/repository"
)

// IngestHandler accepts already-normalized records from the ingestion
// collaborators. File parsing and OCR happen upstream; this surface only
// takes canonical fields.
type IngestHandler struct {
	txRepo  *repository.BankTransactionRepository
	advRepo *repository.RemittanceRepository
}

func NewIngestHandler(txRepo *repository.BankTransactionRepository, advRepo *repository.RemittanceRepository) *IngestHandler {
	return &IngestHandler{txRepo: txRepo, advRepo: advRepo}
}

const dateLayout = "2006-01-02"

func (h *IngestHandler) CreateTransaction(c *gin.Context) {
	var payload struct {
		BookingDate       string `json:"booking_date" binding:"required"`
		Amount            string `json:"amount" binding:"required"`
		Currency          string `json:"currency" binding:"required"`
		PayerName         string `json:"payer_name"`
		CustomerReference string `json:"customer_reference"`
		Purpose           string `json:"purpose"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	bookingDate, err := time.Parse(dateLayout, payload.BookingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_date, expected yyyy-mm-dd"})
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	tx := &models.BankTransaction{
		ID:                uuid.New(),
		BookingDate:       bookingDate,
		Amount:            amount,
		Currency:          payload.Currency,
		PayerName:         payload.PayerName,
		CustomerReference: payload.CustomerReference,
		Purpose:           payload.Purpose,
		CreatedAt:         time.Now(),
	}
	if err := h.txRepo.Create(tx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

func (h *IngestHandler) CreateRemittance(c *gin.Context) {
	var payload struct {
		DocumentNumber string `json:"document_number" binding:"required"`
		SenderName     string `json:"sender_name"`
		DocumentDate   string `json:"document_date"`
		TotalNetAmount string `json:"total_net_amount" binding:"required"`
		Currency       string `json:"currency" binding:"required"`
		LineItems      []struct {
			InvoiceNumber    string `json:"invoice_number"`
			ReferenceCode    string `json:"reference_code"`
			DiscountAmount   string `json:"discount_amount"`
			GrossAmount      string `json:"gross_amount"`
			NetPaymentAmount string `json:"net_payment_amount" binding:"required"`
		} `json:"line_items"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	total, err := decimal.NewFromString(payload.TotalNetAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total_net_amount"})
		return
	}

	adv := &models.RemittanceAdvice{
		ID:             uuid.New(),
		DocumentNumber: payload.DocumentNumber,
		SenderName:     payload.SenderName,
		TotalNetAmount: total,
		Currency:       payload.Currency,
		Status:         models.AdviceUnconsumed,
		CreatedAt:      time.Now(),
	}
	if payload.DocumentDate != "" {
		docDate, err := time.Parse(dateLayout, payload.DocumentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_date, expected yyyy-mm-dd"})
			return
		}
		adv.DocumentDate = docDate
	}

	for i, li := range payload.LineItems {
		net, err := decimal.NewFromString(li.NetPaymentAmount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid net_payment_amount in line item"})
			return
		}
		item := models.RemittanceLineItem{
			ID:               uuid.New(),
			RemittanceID:     adv.ID,
			Position:         i + 1,
			InvoiceNumber:    li.InvoiceNumber,
			ReferenceCode:    li.ReferenceCode,
			NetPaymentAmount: net,
			CreatedAt:        time.Now(),
		}
		if li.DiscountAmount != "" {
			if d, err := decimal.NewFromString(li.DiscountAmount); err == nil {
				item.DiscountAmount = d
			}
		}
		if li.GrossAmount != "" {
			if g, err := decimal.NewFromString(li.GrossAmount); err == nil {
				item.GrossAmount = g
			}
		}
		adv.LineItems = append(adv.LineItems, item)
	}

	if err := h.advRepo.Create(adv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"remittance": adv})
}
