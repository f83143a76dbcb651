package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cash-application-backend/internal/repository"
	"cash-application-backend/internal/services/journal"
)

type JournalHandler struct {
	repo *repository.JournalRepository
}

func NewJournalHandler(repo *repository.JournalRepository) *JournalHandler {
	return &JournalHandler{repo: repo}
}

func (h *JournalHandler) List(c *gin.Context) {
	entries, err := h.repo.AllEntries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// Export streams all entries as CSV in the fixed 10-column ledger format.
func (h *JournalHandler) Export(c *gin.Context) {
	entries, err := h.repo.AllEntries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="journal_entries.csv"`)
	if err := journal.WriteCSV(c.Writer, entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
