// Package processing orchestrates the cash application pipeline: candidate
// selection, scoring, match recording and journal generation, one
// transaction at a time.
package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
	"cash-application-backend/internal/services/journal"
	"cash-application-backend/internal/services/ledger"
	"cash-application-backend/internal/services/matching"
)

// TransactionSource supplies the transactions to reconcile.
type TransactionSource interface {
	Transactions() ([]*models.BankTransaction, error)
}

// AdviceSource supplies the remittance pool with line items loaded.
type AdviceSource interface {
	Advices() ([]*models.RemittanceAdvice, error)
	AdviceByID(id uuid.UUID) (*models.RemittanceAdvice, error)
}

// Outcome is the per-transaction result of a run.
type Outcome struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	Status         string    `json:"status"`
	Score          float64   `json:"score,omitempty"`
	TieBreakReason string    `json:"tie_break_reason,omitempty"`
	EntriesCreated int       `json:"entries_created"`
	Skipped        bool      `json:"skipped,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	TotalTransactions int       `json:"total_transactions"`
	TotalAdvices      int       `json:"total_advices"`
	AutoMatched       int       `json:"auto_matched"`
	ManualReview      int       `json:"manual_review"`
	Unmatched         int       `json:"unmatched"`
	Skipped           int       `json:"skipped"`
	EntriesCreated    int       `json:"entries_created"`
	Outcomes          []Outcome `json:"outcomes"`
	Errors            []string  `json:"errors"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
}

type Service struct {
	txSource    TransactionSource
	advSource   AdviceSource
	decider     *matching.Decider
	ledger      *ledger.Ledger
	journal     *journal.Service
	selectorCfg config.Selector
	workers     int
}

func NewService(
	txSource TransactionSource,
	advSource AdviceSource,
	dec *matching.Decider,
	led *ledger.Ledger,
	jrn *journal.Service,
	selectorCfg config.Selector,
	workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		txSource:    txSource,
		advSource:   advSource,
		decider:     dec,
		ledger:      led,
		journal:     jrn,
		selectorCfg: selectorCfg,
		workers:     workers,
	}
}

// Run processes every transaction independently. Scoring is pure and runs
// in parallel across a bounded worker pool; advice consumption is guarded
// by the ledger's compare-and-set, so two workers can never attach the
// same advice to two transactions. The run is interruptible between
// transactions and resumable: finalized matches are skipped unless force
// is set. Per-transaction failures never abort the batch.
func (s *Service) Run(ctx context.Context, force bool) (*RunResult, error) {
	result := &RunResult{StartedAt: time.Now()}

	txs, err := s.txSource.Transactions()
	if err != nil {
		return nil, err
	}
	pool, err := s.advSource.Advices()
	if err != nil {
		return nil, err
	}
	consumed, err := s.ledger.ConsumedAdviceIDs()
	if err != nil {
		return nil, err
	}

	result.TotalTransactions = len(txs)
	result.TotalAdvices = len(pool)
	slog.Info("starting processing run", "transactions", len(txs), "advices", len(pool), "force", force)

	jobs := make(chan *models.BankTransaction)
	outcomes := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tx := range jobs {
				outcomes <- s.processOne(tx, pool, consumed, force)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, tx := range txs {
			select {
			case <-ctx.Done():
				return
			case jobs <- tx:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		result.Outcomes = append(result.Outcomes, o)
		result.EntriesCreated += o.EntriesCreated
		switch {
		case o.Skipped:
			result.Skipped++
		case o.Status == models.StatusAutoMatched || o.Status == models.StatusApproved:
			result.AutoMatched++
		case o.Status == models.StatusManualReview:
			result.ManualReview++
		default:
			result.Unmatched++
		}
		if o.Error != "" {
			result.Errors = append(result.Errors, o.Error)
		}
	}

	result.CompletedAt = time.Now()
	slog.Info("processing run complete",
		"auto_matched", result.AutoMatched,
		"manual_review", result.ManualReview,
		"unmatched", result.Unmatched,
		"skipped", result.Skipped,
		"entries", result.EntriesCreated,
		"errors", len(result.Errors))
	return result, nil
}

// processOne decides and finalizes a single transaction. Losing the advice
// claim race excludes that advice and re-decides against the remainder.
func (s *Service) processOne(
	tx *models.BankTransaction,
	pool []*models.RemittanceAdvice,
	consumed map[uuid.UUID]bool,
	force bool,
) Outcome {
	out := Outcome{TransactionID: tx.ID}

	existing, err := s.ledger.MatchByTransaction(tx.ID)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if existing != nil && existing.Finalized() && !force {
		out.Status = existing.Status
		out.Score = existing.ConfidenceScore
		out.Skipped = true
		// Entries may be missing if a previous run was interrupted after
		// finalization; regeneration is idempotent.
		out.EntriesCreated, out.Error = s.generateFor(tx, existing)
		return out
	}

	excluded := make(map[uuid.UUID]bool)
	for {
		candidates := s.selectCandidates(tx, pool, consumed, excluded)
		dec := s.decider.Decide(tx, candidates)

		match, err := s.ledger.Record(dec, force)
		if errors.Is(err, ledger.ErrAdviceConsumed) {
			excluded[dec.Advice.ID] = true
			continue
		}
		if err != nil {
			out.Error = err.Error()
			return out
		}

		out.Status = dec.Status
		out.Score = dec.Breakdown.Total
		out.TieBreakReason = dec.TieBreakReason
		out.EntriesCreated, out.Error = s.generateFor(tx, match)
		if out.Error != "" {
			// Journal refused to post; the match was demoted.
			out.Status = models.StatusManualReview
		}
		return out
	}
}

func (s *Service) selectCandidates(
	tx *models.BankTransaction,
	pool []*models.RemittanceAdvice,
	consumed, excluded map[uuid.UUID]bool,
) []*models.RemittanceAdvice {
	merged := make(map[uuid.UUID]bool, len(consumed)+len(excluded))
	for id := range consumed {
		merged[id] = true
	}
	for id := range excluded {
		merged[id] = true
	}
	return matching.SelectCandidates(tx, pool, merged, s.selectorCfg)
}

// generateFor writes journal entries for a decided transaction. Matches in
// manual review get no entries; an unbalanced match is demoted to manual
// review and the reconciliation failure reported.
func (s *Service) generateFor(tx *models.BankTransaction, match *models.Match) (int, string) {
	var advice *models.RemittanceAdvice
	if match != nil {
		if match.Status == models.StatusManualReview || match.Status == models.StatusRejected {
			return 0, ""
		}
		var err error
		advice, err = s.advSource.AdviceByID(match.RemittanceID)
		if err != nil {
			return 0, err.Error()
		}
	}

	entries, err := s.journal.Generate(tx, match, advice)
	if err != nil {
		var ub *journal.UnbalancedError
		if errors.As(err, &ub) && match != nil {
			if _, derr := s.ledger.Demote(match.ID, ub.Error()); derr != nil {
				slog.Error("failed to demote unbalanced match", "match", match.ID, "error", derr)
			}
			slog.Warn("reconciliation failure",
				"transaction", tx.ID,
				"match", match.ID,
				"shortfall", ub.Shortfall())
		}
		return 0, err.Error()
	}
	return len(entries), ""
}
