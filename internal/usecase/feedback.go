package usecase

import (
	"fmt"
	"time"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// FeedbackUseCase appends ranking outcomes to the ledger. The ranking
// run that produced the evidence is already complete; a failed append
// is surfaced but affects nothing else.
type FeedbackUseCase struct {
	ledger port.FeedbackLedger
}

func NewFeedbackUseCase(ledger port.FeedbackLedger) *FeedbackUseCase {
	return &FeedbackUseCase{ledger: ledger}
}

// Record snapshots the evidence produced for a query together with its
// externally computed quality score and the weight version used.
func (u *FeedbackUseCase) Record(query string, evidence []domain.RankedEvidence, quality float64, weightVersion int) (domain.FeedbackRecord, error) {
	if quality < 0 || quality > 1 {
		return domain.FeedbackRecord{}, fmt.Errorf("quality score must be in [0, 1], got %g", quality)
	}

	rec := domain.FeedbackRecord{
		Timestamp:     time.Now().UTC(),
		QueryText:     query,
		Evidence:      evidence,
		Quality:       quality,
		WeightVersion: weightVersion,
	}
	if err := u.ledger.Append(rec); err != nil {
		return domain.FeedbackRecord{}, fmt.Errorf("failed to append feedback: %w", err)
	}
	return rec, nil
}
