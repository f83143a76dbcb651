package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cash-application-backend/internal/services/processing"
)

type ProcessingHandler struct {
	svc *processing.Service
}

func NewProcessingHandler(svc *processing.Service) *ProcessingHandler {
	return &ProcessingHandler{svc: svc}
}

// Run executes the full pipeline: matching, then journal generation.
func (h *ProcessingHandler) Run(c *gin.Context) {
	var payload struct {
		Force bool `json:"force"`
	}
	// Body is optional; without one the run is not forced.
	_ = c.ShouldBindJSON(&payload)

	result, err := h.svc.Run(c.Request.Context(), payload.Force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
