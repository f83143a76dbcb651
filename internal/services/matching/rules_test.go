package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

func testMatchingConfig() config.Matching {
	return config.Matching{
		ReferenceWeight:       40,
		AmountWeight:          35,
		CompanyWeight:         15,
		DateWeight:            10,
		AutoMatchThreshold:    85,
		ManualReviewThreshold: 60,
		AmountExactRatio:      0.001,
		AmountMaxRatio:        0.05,
		DateDecayDays:         14,
	}
}

func newTx(amount string, ref, payer string, date time.Time) *models.BankTransaction {
	return &models.BankTransaction{
		ID:                uuid.New(),
		BookingDate:       date,
		Amount:            decimal.RequireFromString(amount),
		Currency:          "EUR",
		PayerName:         payer,
		CustomerReference: ref,
	}
}

func newAdvice(total string, doc, sender string, date time.Time) *models.RemittanceAdvice {
	return &models.RemittanceAdvice{
		ID:             uuid.New(),
		DocumentNumber: doc,
		SenderName:     sender,
		DocumentDate:   date,
		TotalNetAmount: decimal.RequireFromString(total),
		Currency:       "EUR",
		Status:         models.AdviceUnconsumed,
	}
}

func ruleByName(t *testing.T, b Breakdown, name string) RuleResult {
	t.Helper()
	for _, r := range b.Rules {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found in breakdown", name)
	return RuleResult{}
}

func TestReferenceRule(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		ref   string
		doc   string
		score float64
	}{
		{name: "exact", ref: "10003839", doc: "10003839", score: 40},
		{name: "case folded", ref: "AB-123", doc: "ab-123", score: 40},
		{name: "trimmed", ref: " 10003839 ", doc: "10003839", score: 40},
		{name: "leading zeros significant", ref: "0123", doc: "123", score: 0},
		{name: "mismatch", ref: "10003839", doc: "99999999", score: 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx := newTx("-100.00", c.ref, "X", day)
			adv := newAdvice("100.00", c.doc, "X", day)
			r := ruleByName(t, s.Score(tx, adv), "reference")
			assert.Equal(t, c.score, r.Score)
		})
	}

	t.Run("missing field", func(t *testing.T) {
		tx := newTx("-100.00", "", "X", day)
		adv := newAdvice("100.00", "123", "X", day)
		r := ruleByName(t, s.Score(tx, adv), "reference")
		assert.Equal(t, 0.0, r.Score)
		assert.Equal(t, "missing field", r.Rationale)
	})
}

func TestAmountRule(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		amount string
		total  string
		score  float64
	}{
		{name: "exact", amount: "-38935.25", total: "38935.25", score: 35},
		{name: "sign ignored", amount: "38935.25", total: "38935.25", score: 35},
		{name: "within exact ratio", amount: "-1000.50", total: "1000.00", score: 35},
		{name: "just past exact ratio decays", amount: "-1002.00", total: "1000.00", score: 35 * (1 - 0.002/0.05)},
		{name: "midway through decay", amount: "-1025.00", total: "1000.00", score: 35 * (1 - 0.025/0.05)},
		{name: "beyond tolerance", amount: "-1100.00", total: "1000.00", score: 0},
		{name: "zero total zero amount", amount: "0", total: "0", score: 35},
		{name: "zero total nonzero amount", amount: "-50.00", total: "0", score: 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx := newTx(c.amount, "r", "X", day)
			adv := newAdvice(c.total, "d", "X", day)
			r := ruleByName(t, s.Score(tx, adv), "amount")
			assert.InDelta(t, c.score, r.Score, 1e-6)
		})
	}

	// 0.1% sits exactly inside the full-score band.
	t.Run("boundary at exact ratio", func(t *testing.T) {
		tx := newTx("-1001.00", "r", "X", day)
		adv := newAdvice("1000.00", "d", "X", day)
		r := ruleByName(t, s.Score(tx, adv), "amount")
		assert.Equal(t, 35.0, r.Score)
	})
}

func TestCompanyRule(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("identical names score full weight", func(t *testing.T) {
		tx := newTx("-1.00", "r", "Bike Team GmbH", day)
		adv := newAdvice("1.00", "d", "Bike Team GmbH", day)
		r := ruleByName(t, s.Score(tx, adv), "company")
		assert.Equal(t, 15.0, r.Score)
	})

	t.Run("similar names score proportionally", func(t *testing.T) {
		tx := newTx("-1.00", "r", "Blke Team GmbH", day)
		adv := newAdvice("1.00", "d", "Bike Team GmbH", day)
		r := ruleByName(t, s.Score(tx, adv), "company")
		assert.Greater(t, r.Score, 10.0)
		assert.Less(t, r.Score, 15.0)
	})

	t.Run("missing name", func(t *testing.T) {
		tx := newTx("-1.00", "r", "", day)
		adv := newAdvice("1.00", "d", "Bike Team GmbH", day)
		r := ruleByName(t, s.Score(tx, adv), "company")
		assert.Equal(t, 0.0, r.Score)
		assert.Equal(t, "missing field", r.Rationale)
	})
}

func TestDateRule(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		days  int
		score float64
	}{
		{name: "same day", days: 0, score: 10},
		{name: "seven days", days: 7, score: 10 * (1 - 7.0/14.0)},
		{name: "thirteen days", days: 13, score: 10 * (1 - 13.0/14.0)},
		{name: "fourteen days", days: 14, score: 0},
		{name: "far apart", days: 60, score: 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx := newTx("-1.00", "r", "X", base.AddDate(0, 0, c.days))
			adv := newAdvice("1.00", "d", "X", base)
			r := ruleByName(t, s.Score(tx, adv), "date")
			assert.InDelta(t, c.score, r.Score, 1e-6)
		})
	}

	t.Run("missing advice date", func(t *testing.T) {
		tx := newTx("-1.00", "r", "X", base)
		adv := newAdvice("1.00", "d", "X", time.Time{})
		r := ruleByName(t, s.Score(tx, adv), "date")
		assert.Equal(t, 0.0, r.Score)
		assert.Equal(t, "missing field", r.Rationale)
	})
}

func TestTotalScoreBounds(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	pairs := []struct {
		tx  *models.BankTransaction
		adv *models.RemittanceAdvice
	}{
		{newTx("-38935.25", "10003839", "Bike Team GmbH", day), newAdvice("38935.25", "10003839", "Bike Team GmbH", day)},
		{newTx("-1.00", "", "", time.Time{}), newAdvice("9999.99", "x", "y", day)},
		{newTx("500.00", "abc", "Muster AG", day), newAdvice("505.00", "abd", "Musterfirma AG", day.AddDate(0, 0, 3))},
		{newTx("0", "", "", time.Time{}), newAdvice("0", "", "", time.Time{})},
	}
	for _, p := range pairs {
		b := s.Score(p.tx, p.adv)
		assert.GreaterOrEqual(t, b.Total, 0.0)
		assert.LessOrEqual(t, b.Total, 100.0)
		assert.Len(t, b.Rules, 4)
	}
}

func TestPerfectPairScoresHundred(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tx := newTx("-38935.25", "10003839", "Bike Team GmbH", day)
	adv := newAdvice("38935.25", "10003839", "Bike Team GmbH", day)

	b := s.Score(tx, adv)
	require.Equal(t, 100.0, b.Total)
	assert.True(t, b.AllExact())
}
