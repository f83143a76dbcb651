package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cash-application-backend/internal/models"
	"cash-application-backend/internal/repository"
	"cash-application-backend/internal/services/journal"
	"cash-application-backend/internal/services/ledger"
)

type MatchHandler struct {
	ledger     *ledger.Ledger
	matchStore *repository.MatchStore
	txRepo     *repository.BankTransactionRepository
	advRepo    *repository.RemittanceRepository
	journal    *journal.Service
}

func NewMatchHandler(
	led *ledger.Ledger,
	matchStore *repository.MatchStore,
	txRepo *repository.BankTransactionRepository,
	advRepo *repository.RemittanceRepository,
	jrn *journal.Service,
) *MatchHandler {
	return &MatchHandler{
		ledger:     led,
		matchStore: matchStore,
		txRepo:     txRepo,
		advRepo:    advRepo,
		journal:    jrn,
	}
}

func (h *MatchHandler) List(c *gin.Context) {
	matches, err := h.matchStore.ListMatches(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

func (h *MatchHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	m, err := h.ledger.MatchByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m})
}

type transitionPayload struct {
	Version int    `json:"version" binding:"required"`
	Actor   string `json:"actor"`
	Reason  string `json:"reason"`
}

// Approve finalizes a match on behalf of an operator and posts its journal
// entries.
func (h *MatchHandler) Approve(c *gin.Context) {
	id, payload, ok := h.bindTransition(c)
	if !ok {
		return
	}

	m, err := h.ledger.Approve(id, payload.Version, payload.Actor)
	if err != nil {
		h.transitionError(c, err)
		return
	}

	// An approved match is postable; generate its entries right away.
	tx, err := h.txRepo.GetByID(m.TransactionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	adv, err := h.advRepo.AdviceByID(m.RemittanceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.journal.Generate(tx, m, adv)
	if err != nil {
		var ub *journal.UnbalancedError
		if errors.As(err, &ub) {
			demoted, _ := h.ledger.Demote(m.ID, ub.Error())
			c.JSON(http.StatusConflict, gin.H{
				"error":     "reconciliation failure, match moved to manual review",
				"shortfall": ub.Shortfall(),
				"match":     demoted,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": m, "entries_created": len(entries)})
}

func (h *MatchHandler) Reject(c *gin.Context) {
	id, payload, ok := h.bindTransition(c)
	if !ok {
		return
	}
	m, err := h.ledger.Reject(id, payload.Version, payload.Actor, payload.Reason)
	if err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m})
}

func (h *MatchHandler) Requeue(c *gin.Context) {
	id, payload, ok := h.bindTransition(c)
	if !ok {
		return
	}
	m, err := h.ledger.Requeue(id, payload.Version, payload.Actor)
	if err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m})
}

func (h *MatchHandler) Clear(c *gin.Context) {
	id, payload, ok := h.bindTransition(c)
	if !ok {
		return
	}
	if err := h.ledger.Clear(id, payload.Version, payload.Actor); err != nil {
		h.transitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusUnmatched})
}

func (h *MatchHandler) bindTransition(c *gin.Context) (uuid.UUID, transitionPayload, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return uuid.Nil, transitionPayload{}, false
	}
	var payload transitionPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload, version is required"})
		return uuid.Nil, transitionPayload{}, false
	}
	return id, payload, true
}

func (h *MatchHandler) transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrStaleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": "stale version, re-fetch the match and retry"})
	case errors.Is(err, ledger.ErrAdviceConsumed):
		c.JSON(http.StatusConflict, gin.H{"error": "remittance advice already consumed by another match"})
	case errors.Is(err, ledger.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
