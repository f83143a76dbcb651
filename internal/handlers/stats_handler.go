package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cash-application-backend/internal/repository"
)

type StatsHandler struct {
	matchStore  *repository.MatchStore
	journalRepo *repository.JournalRepository
}

func NewStatsHandler(matchStore *repository.MatchStore, journalRepo *repository.JournalRepository) *StatsHandler {
	return &StatsHandler{matchStore: matchStore, journalRepo: journalRepo}
}

// Get reports per-status match counts and the posted debit/credit totals.
func (h *StatsHandler) Get(c *gin.Context) {
	counts, err := h.matchStore.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	debit, credit, err := h.journalRepo.Totals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matches_by_status": counts,
		"journal_debit":     debit,
		"journal_credit":    credit,
	})
}
