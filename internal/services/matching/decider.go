package matching

import (
	"sort"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

// Tie-break reasons recorded on the match when more than one candidate
// qualified.
const (
	TieBreakScore          = "highest_score"
	TieBreakAmount         = "smallest_amount_difference"
	TieBreakDate           = "earliest_document_date"
	TieBreakDocumentNumber = "smallest_document_number"
)

// Decision is the outcome of deciding one transaction against its
// candidate pool. Advice is nil when no candidate qualified.
type Decision struct {
	Transaction    *models.BankTransaction
	Advice         *models.RemittanceAdvice
	Breakdown      Breakdown
	Status         string
	MatchType      string
	TieBreakReason string
}

// Decider aggregates rule scores per candidate, applies the thresholds and
// resolves ties deterministically.
type Decider struct {
	scorer *Scorer
	cfg    config.Matching
}

func NewDecider(cfg config.Matching) *Decider {
	return &Decider{scorer: NewScorer(cfg), cfg: cfg}
}

type scored struct {
	advice    *models.RemittanceAdvice
	breakdown Breakdown
}

// Decide scores every candidate and returns exactly one decision for the
// transaction. Candidates below the review threshold are discarded; among
// the qualifiers the winner is the highest score, then the smallest
// absolute amount difference, then the earliest document date, then the
// lexicographically smallest document number. Candidates indistinguishable
// on all four keys keep their input order, so the same inputs always yield
// the same decision.
func (d *Decider) Decide(tx *models.BankTransaction, candidates []*models.RemittanceAdvice) Decision {
	var qualified []scored
	for _, adv := range candidates {
		b := d.scorer.Score(tx, adv)
		if b.Total >= d.cfg.ManualReviewThreshold {
			qualified = append(qualified, scored{advice: adv, breakdown: b})
		}
	}

	if len(qualified) == 0 {
		return Decision{Transaction: tx, Status: models.StatusUnmatched}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return lessCandidate(tx, qualified[i], qualified[j])
	})

	best := qualified[0]
	dec := Decision{
		Transaction: tx,
		Advice:      best.advice,
		Breakdown:   best.breakdown,
	}
	if len(qualified) > 1 {
		dec.TieBreakReason = tieBreakReason(tx, best, qualified[1])
	}

	if best.breakdown.Total >= d.cfg.AutoMatchThreshold {
		dec.Status = models.StatusAutoMatched
		if best.breakdown.AllExact() {
			dec.MatchType = models.MatchAutoExact
		} else {
			dec.MatchType = models.MatchAutoFuzzy
		}
	} else {
		// The match type is assigned by whoever finalizes: manual review
		// decisions stay untyped until an operator approves.
		dec.Status = models.StatusManualReview
	}
	return dec
}

func lessCandidate(tx *models.BankTransaction, a, b scored) bool {
	if a.breakdown.Total != b.breakdown.Total {
		return a.breakdown.Total > b.breakdown.Total
	}
	ad := AmountDifference(tx, a.advice)
	bd := AmountDifference(tx, b.advice)
	if c := ad.Cmp(bd); c != 0 {
		return c < 0
	}
	if !a.advice.DocumentDate.Equal(b.advice.DocumentDate) {
		return a.advice.DocumentDate.Before(b.advice.DocumentDate)
	}
	return a.advice.DocumentNumber < b.advice.DocumentNumber
}

// tieBreakReason names the first criterion that separated the winner from
// the runner-up.
func tieBreakReason(tx *models.BankTransaction, winner, runnerUp scored) string {
	if winner.breakdown.Total != runnerUp.breakdown.Total {
		return TieBreakScore
	}
	wd := AmountDifference(tx, winner.advice)
	rd := AmountDifference(tx, runnerUp.advice)
	if wd.Cmp(rd) != 0 {
		return TieBreakAmount
	}
	if !winner.advice.DocumentDate.Equal(runnerUp.advice.DocumentDate) {
		return TieBreakDate
	}
	return TieBreakDocumentNumber
}
