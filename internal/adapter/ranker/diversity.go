package ranker

import "policyrag/internal/domain"

// DiversityReranker promotes evidence from distinct documents so a
// report never cites a single document for every point. It reorders
// only; scores are untouched.
type DiversityReranker struct {
	target int
}

// NewDiversityReranker creates a reranker that surfaces the best item
// of each document until target distinct documents appear, then fills
// the remaining slots by score. A target <= 0 disables reordering.
func NewDiversityReranker(target int) *DiversityReranker {
	return &DiversityReranker{target: target}
}

// Rerank expects evidence sorted by score descending, as produced by
// the Engine.
func (r *DiversityReranker) Rerank(evidence []domain.RankedEvidence) []domain.RankedEvidence {
	if r.target <= 0 || len(evidence) <= 1 {
		return evidence
	}

	picked := make([]domain.RankedEvidence, 0, len(evidence))
	used := make(map[string]bool, len(evidence))
	seenDocs := make(map[string]bool, r.target)

	// Pass 1: best item per document until the diversity target is met.
	for _, e := range evidence {
		if len(seenDocs) >= r.target {
			break
		}
		if e.DocKey == "" || seenDocs[e.DocKey] {
			continue
		}
		picked = append(picked, e)
		used[e.ChunkID] = true
		seenDocs[e.DocKey] = true
	}

	// Pass 2: fill remaining slots by score.
	for _, e := range evidence {
		if used[e.ChunkID] {
			continue
		}
		picked = append(picked, e)
	}

	return picked
}
