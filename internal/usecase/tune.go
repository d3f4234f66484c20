package usecase

import (
	"fmt"
	"sync"

	"policyrag/internal/adapter/tuner"
	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// TuneUseCase runs one tuning cycle: read the recent feedback batch,
// compute a bounded adjustment, and commit it as a new weight version.
// At most one tuning write is in flight at a time.
type TuneUseCase struct {
	ledger    port.FeedbackLedger
	weights   port.WeightStore
	tuner     *tuner.Tuner
	batchSize int
	mu        sync.Mutex
}

func NewTuneUseCase(ledger port.FeedbackLedger, weights port.WeightStore, t *tuner.Tuner, batchSize int) *TuneUseCase {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &TuneUseCase{
		ledger:    ledger,
		weights:   weights,
		tuner:     t,
		batchSize: batchSize,
	}
}

// Tune reads the most recent feedback and, when enough has accumulated,
// saves the adjusted weights with the contributing record ids as
// provenance. An insufficient batch is a defined no-op, not an error.
func (u *TuneUseCase) Tune() (domain.TuningDecision, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	batch, err := u.ledger.ReadRecent(u.batchSize)
	if err != nil {
		return domain.TuningDecision{}, fmt.Errorf("failed to read feedback ledger: %w", err)
	}

	current, err := u.weights.Load()
	if err != nil {
		return domain.TuningDecision{}, fmt.Errorf("failed to load weights: %w", err)
	}

	decision := u.tuner.Tune(batch, current)
	if !decision.Updated {
		return decision, nil
	}

	saved, err := u.weights.Save(decision.Weights, port.WeightProvenance{
		FeedbackIDs: decision.Rationale,
		Note:        fmt.Sprintf("tuned from %d feedback records", len(batch)),
	})
	if err != nil {
		return domain.TuningDecision{}, fmt.Errorf("failed to save tuned weights: %w", err)
	}
	decision.Weights = saved

	return decision, nil
}
