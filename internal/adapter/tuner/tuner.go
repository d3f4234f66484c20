package tuner

import (
	"fmt"
	"sort"

	"policyrag/internal/domain"
)

// Options bound the tuner. Every per-invocation weight change is
// clamped to ±MaxStep and every weight stays within its [floor, ceil]
// range, so repeated tuning cycles cannot drift without bound.
type Options struct {
	MinRecords    int
	MaxStep       float64
	QualityTarget float64 // quality below this pulls weights down, above pushes up
	Floor         float64
	Ceil          float64
}

// DefaultOptions matches the documented tuning policy.
func DefaultOptions() Options {
	return Options{
		MinRecords:    3,
		MaxStep:       0.05,
		QualityTarget: 0.6,
		Floor:         0.0,
		Ceil:          2.0,
	}
}

// Tuner computes bounded weight adjustments from a batch of feedback.
// It is stateless: all state lives in the weight store and the ledger.
type Tuner struct {
	opts Options
}

func New(opts Options) *Tuner {
	if opts.MinRecords <= 0 {
		opts.MinRecords = 3
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = 0.05
	}
	if opts.Ceil <= opts.Floor {
		opts.Floor, opts.Ceil = 0.0, 2.0
	}
	return &Tuner{opts: opts}
}

// Tune produces a new weight configuration from the batch, or a no-op
// decision when fewer than MinRecords are available. Deterministic:
// the same batch and starting weights always yield the same decision.
func (t *Tuner) Tune(batch []domain.FeedbackRecord, current domain.WeightConfig) domain.TuningDecision {
	if len(batch) < t.opts.MinRecords {
		return domain.TuningDecision{
			Updated: false,
			Weights: current,
			Reason:  fmt.Sprintf("insufficient feedback: %d records, need %d", len(batch), t.opts.MinRecords),
		}
	}

	next := current.Clone()
	if next.DocBoost == nil {
		next.DocBoost = map[string]float64{}
	}

	// Aggregate quality signal in [-1, 1]: negative when recent
	// rankings scored below target, positive when above.
	var sum float64
	rationale := make([]string, 0, len(batch))
	for _, rec := range batch {
		sum += clamp(rec.Quality, 0, 1)
		rationale = append(rationale, rec.ID)
	}
	mean := sum / float64(len(batch))
	signal := clamp(mean-t.opts.QualityTarget, -1, 1)

	// Low quality means similarity alone is steering wrong: lean
	// harder on the corrective terms and slightly less on raw
	// similarity. High quality relaxes the penalties again.
	next.Similarity = t.adjust(next.Similarity, signal)
	next.Keyword = t.adjust(next.Keyword, -signal)
	next.Topic = t.adjust(next.Topic, -signal)

	// Per-document boosts follow each document's own quality record:
	// documents that appear in well-scored evidence get nudged up,
	// documents in poorly-scored evidence down.
	for _, doc := range sortedDocKeys(batch) {
		docMean := docQuality(batch, doc)
		next.DocBoost[doc] = t.adjust(next.DocBoost[doc], clamp(docMean-t.opts.QualityTarget, -1, 1))
	}

	return domain.TuningDecision{
		Updated:   true,
		Weights:   next,
		Rationale: rationale,
	}
}

// adjust applies a step proportional to the signal, clamped to
// ±MaxStep, then clamps the result into [Floor, Ceil].
func (t *Tuner) adjust(weight, signal float64) float64 {
	step := clamp(t.opts.MaxStep*signal, -t.opts.MaxStep, t.opts.MaxStep)
	return clamp(weight+step, t.opts.Floor, t.opts.Ceil)
}

// sortedDocKeys returns every document key appearing in the batch's
// evidence, sorted for deterministic iteration.
func sortedDocKeys(batch []domain.FeedbackRecord) []string {
	seen := map[string]bool{}
	for _, rec := range batch {
		for _, e := range rec.Evidence {
			if e.DocKey != "" {
				seen[e.DocKey] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// docQuality is the mean quality over records whose evidence cites doc.
func docQuality(batch []domain.FeedbackRecord, doc string) float64 {
	var sum float64
	n := 0
	for _, rec := range batch {
		for _, e := range rec.Evidence {
			if e.DocKey == doc {
				sum += clamp(rec.Quality, 0, 1)
				n++
				break
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
