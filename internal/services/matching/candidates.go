package matching

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

// SelectCandidates narrows the advice pool for one transaction before full
// scoring: same currency, and amount within the configured window or dates
// within the configured range. Consumed advices are dropped. The windows
// are wide enough that nothing a scorer would put at or above the review
// threshold is ever filtered out here.
func SelectCandidates(
	tx *models.BankTransaction,
	pool []*models.RemittanceAdvice,
	consumed map[uuid.UUID]bool,
	cfg config.Selector,
) []*models.RemittanceAdvice {
	var out []*models.RemittanceAdvice
	bank := tx.Amount.Abs()

	for _, adv := range pool {
		if consumed[adv.ID] {
			continue
		}
		if !sameCurrency(tx.Currency, adv.Currency) {
			continue
		}

		amountOK := false
		window := bank.Mul(decimalFromFloat(cfg.AmountWindowPct))
		if AmountDifference(tx, adv).Cmp(window) <= 0 {
			amountOK = true
		}

		dateOK := false
		if !tx.BookingDate.IsZero() && !adv.DocumentDate.IsZero() &&
			daysApart(tx.BookingDate, adv.DocumentDate) <= cfg.DateWindowDays {
			dateOK = true
		}

		if amountOK || dateOK {
			out = append(out, adv)
		}
	}
	return out
}

func sameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
