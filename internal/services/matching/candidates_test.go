package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

func testSelectorConfig() config.Selector {
	return config.Selector{AmountWindowPct: 0.10, DateWindowDays: 30}
}

func TestSelectCandidates(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tx := newTx("-1000.00", "r", "X", day)

	sameAmount := newAdvice("1000.00", "A1", "X", day.AddDate(0, 0, 90))
	closeDate := newAdvice("5000.00", "A2", "X", day.AddDate(0, 0, 10))
	wrongCurrency := newAdvice("1000.00", "A3", "X", day)
	wrongCurrency.Currency = "USD"
	farBoth := newAdvice("9000.00", "A4", "X", day.AddDate(0, 0, 90))
	consumed := newAdvice("1000.00", "A5", "X", day)

	pool := []*models.RemittanceAdvice{sameAmount, closeDate, wrongCurrency, farBoth, consumed}
	got := SelectCandidates(tx, pool, map[uuid.UUID]bool{consumed.ID: true}, testSelectorConfig())

	ids := make(map[string]bool)
	for _, adv := range got {
		ids[adv.DocumentNumber] = true
	}
	assert.True(t, ids["A1"], "amount within window qualifies despite distant date")
	assert.True(t, ids["A2"], "date within window qualifies despite amount gap")
	assert.False(t, ids["A3"], "currency mismatch excluded")
	assert.False(t, ids["A4"], "neither window matched")
	assert.False(t, ids["A5"], "consumed advice excluded")
}

// The prefilter must be strictly looser than the scorer: any pair scoring
// at or above the review floor has to survive selection.
func TestSelectorNeverDropsReviewableCandidate(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	scorer := NewScorer(testMatchingConfig())

	txs := []*models.BankTransaction{
		newTx("-1000.00", "10003839", "Bike Team GmbH", day),
		newTx("500.00", "REF-1", "Muster AG", day),
	}
	advices := []*models.RemittanceAdvice{
		newAdvice("1000.00", "10003839", "Bike Team GmbH", day),
		newAdvice("1049.00", "10003839", "Bike Team GmbH", day.AddDate(0, 0, 5)),
		newAdvice("500.00", "REF-1", "Muster AG", day.AddDate(0, 0, 13)),
		newAdvice("525.00", "REF-1", "Muster AG", day.AddDate(0, 0, 29)),
	}

	for _, tx := range txs {
		selected := SelectCandidates(tx, advices, nil, testSelectorConfig())
		inSelection := make(map[uuid.UUID]bool)
		for _, adv := range selected {
			inSelection[adv.ID] = true
		}
		for _, adv := range advices {
			b := scorer.Score(tx, adv)
			if b.Total >= 60 {
				assert.True(t, inSelection[adv.ID],
					"advice %s scores %.1f but was filtered out", adv.DocumentNumber, b.Total)
			}
		}
	}
}
