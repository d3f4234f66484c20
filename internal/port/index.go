package port

import "policyrag/internal/domain"

// SimilarityIndex is a nearest-neighbor search structure over passage
// embeddings. The index is built at load time; ranking only queries it.
//
// Distance convention: hits carry cosine distance (1 - cosine
// similarity), lower = more similar. See domain.SimilarityHit.
type SimilarityIndex interface {
	// Query returns the k nearest passages to the query vector,
	// ordered by ascending distance.
	Query(vector []float32, k int) ([]domain.SimilarityHit, error)

	// Upsert adds or replaces vectors in the index.
	Upsert(items []VectorItem) error

	// Delete removes vectors by chunk id.
	Delete(ids []string) error

	// Count returns the number of indexed vectors.
	Count() (int, error)
}

// VectorItem is one embedding to be indexed, keyed by chunk id.
type VectorItem struct {
	ID     string
	Vector []float32
}
