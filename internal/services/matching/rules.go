package matching

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"

	"github.com/shopspring/decimal"
)

// RuleResult is one rule's contribution to a pair's score.
type RuleResult struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Rationale string  `json:"rationale"`
}

// Breakdown is the full per-rule scoring of a transaction/advice pair.
type Breakdown struct {
	Rules []RuleResult `json:"rules"`
	Total float64      `json:"total"`
}

// AllExact reports whether every rule scored its full weight.
func (b Breakdown) AllExact() bool {
	for _, r := range b.Rules {
		if r.Score < r.MaxScore {
			return false
		}
	}
	return true
}

type ruleFunc func(tx *models.BankTransaction, adv *models.RemittanceAdvice) RuleResult

// Scorer runs the four matching rules against a pair. All rules are pure;
// missing fields degrade to a zero subscore, never an error.
type Scorer struct {
	cfg   config.Matching
	rules []ruleFunc
}

func NewScorer(cfg config.Matching) *Scorer {
	s := &Scorer{cfg: cfg}
	s.rules = []ruleFunc{
		s.scoreReference,
		s.scoreAmount,
		s.scoreCompany,
		s.scoreDate,
	}
	return s
}

// Score evaluates all rules in their fixed order and returns the breakdown
// with the total clamped to [0, 100].
func (s *Scorer) Score(tx *models.BankTransaction, adv *models.RemittanceAdvice) Breakdown {
	b := Breakdown{Rules: make([]RuleResult, 0, len(s.rules))}
	for _, rule := range s.rules {
		r := rule(tx, adv)
		b.Rules = append(b.Rules, r)
		b.Total += r.Score
	}
	b.Total = math.Min(math.Max(b.Total, 0), 100)
	return b
}

// scoreReference is binary: the transaction's customer reference and the
// advice document number must be identical after trim and case-fold.
// Leading zeros are significant.
func (s *Scorer) scoreReference(tx *models.BankTransaction, adv *models.RemittanceAdvice) RuleResult {
	r := RuleResult{Name: "reference", MaxScore: s.cfg.ReferenceWeight}

	ref := strings.ToLower(strings.TrimSpace(tx.CustomerReference))
	doc := strings.ToLower(strings.TrimSpace(adv.DocumentNumber))

	if ref == "" || doc == "" {
		r.Rationale = "missing field"
		return r
	}
	if ref == doc {
		r.Score = s.cfg.ReferenceWeight
		r.Rationale = fmt.Sprintf("exact reference match: %q", tx.CustomerReference)
		return r
	}
	r.Rationale = fmt.Sprintf("reference mismatch: %q != %q", tx.CustomerReference, adv.DocumentNumber)
	return r
}

// scoreAmount compares |transaction amount| against the advice total,
// full score within AmountExactRatio and linear decay up to AmountMaxRatio.
func (s *Scorer) scoreAmount(tx *models.BankTransaction, adv *models.RemittanceAdvice) RuleResult {
	r := RuleResult{Name: "amount", MaxScore: s.cfg.AmountWeight}

	bank := tx.Amount.Abs()
	total := adv.TotalNetAmount

	if total.IsZero() {
		if bank.IsZero() {
			r.Score = s.cfg.AmountWeight
			r.Rationale = "both amounts zero"
		} else {
			r.Rationale = fmt.Sprintf("advice total is zero, transaction amount is %s", bank)
		}
		return r
	}

	diff := bank.Sub(total).Abs()
	ratio, _ := diff.Div(total.Abs()).Float64()

	switch {
	case ratio <= s.cfg.AmountExactRatio:
		r.Score = s.cfg.AmountWeight
		r.Rationale = fmt.Sprintf("amount match: %s vs %s", bank, total)
	case ratio <= s.cfg.AmountMaxRatio:
		r.Score = s.cfg.AmountWeight * (1 - ratio/s.cfg.AmountMaxRatio)
		r.Rationale = fmt.Sprintf("amount within tolerance: diff %s (%.2f%%)", diff, ratio*100)
	default:
		r.Rationale = fmt.Sprintf("amount mismatch: diff %s (%.2f%%)", diff, ratio*100)
	}
	return r
}

// scoreCompany scales the weight by the fuzzy similarity of payer and
// sender names.
func (s *Scorer) scoreCompany(tx *models.BankTransaction, adv *models.RemittanceAdvice) RuleResult {
	r := RuleResult{Name: "company", MaxScore: s.cfg.CompanyWeight}

	if NormalizeName(tx.PayerName) == "" || NormalizeName(adv.SenderName) == "" {
		r.Rationale = "missing field"
		return r
	}

	sim := Similarity(tx.PayerName, adv.SenderName)
	r.Score = s.cfg.CompanyWeight * sim
	r.Rationale = fmt.Sprintf("name similarity %.0f%%: %q ~ %q", sim*100, tx.PayerName, adv.SenderName)
	return r
}

// scoreDate gives the full weight on the same day, decaying linearly to
// zero at DateDecayDays apart.
func (s *Scorer) scoreDate(tx *models.BankTransaction, adv *models.RemittanceAdvice) RuleResult {
	r := RuleResult{Name: "date", MaxScore: s.cfg.DateWeight}

	if tx.BookingDate.IsZero() || adv.DocumentDate.IsZero() {
		r.Rationale = "missing field"
		return r
	}

	days := daysApart(tx.BookingDate, adv.DocumentDate)
	switch {
	case days == 0:
		r.Score = s.cfg.DateWeight
		r.Rationale = "same date"
	case days < s.cfg.DateDecayDays:
		r.Score = s.cfg.DateWeight * (1 - float64(days)/float64(s.cfg.DateDecayDays))
		r.Rationale = fmt.Sprintf("dates %d day(s) apart", days)
	default:
		r.Rationale = fmt.Sprintf("dates too far apart (%d days)", days)
	}
	return r
}

// AmountDifference is the absolute gap between the transaction magnitude
// and the advice total. Used both by the amount rule and the tie-break.
func AmountDifference(tx *models.BankTransaction, adv *models.RemittanceAdvice) decimal.Decimal {
	return tx.Amount.Abs().Sub(adv.TotalNetAmount).Abs()
}

func daysApart(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(ad.Sub(bd).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}
