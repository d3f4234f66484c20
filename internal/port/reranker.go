package port

import "policyrag/internal/domain"

// EvidenceReranker reorders already-scored evidence, e.g. to enforce
// document diversity. It never rescores items.
type EvidenceReranker interface {
	Rerank(evidence []domain.RankedEvidence) []domain.RankedEvidence
}
