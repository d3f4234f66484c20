package index

import (
	"fmt"
	"sort"
	"sync"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// MemoryIndex is an in-memory port.SimilarityIndex with the same
// distance convention as BoltIndex. Used in tests and anywhere
// persistence is unnecessary.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}
}

func (s *MemoryIndex) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
		}
		s.vectors[item.ID] = item.Vector
	}
	return nil
}

func (s *MemoryIndex) Query(query []float32, k int) ([]domain.SimilarityHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension mismatch: expected %d, got %d",
			domain.ErrIndexUnavailable, s.dimension, len(query))
	}

	hits := make([]domain.SimilarityHit, 0, len(s.vectors))
	for id, vec := range s.vectors {
		hits = append(hits, domain.SimilarityHit{
			ChunkID:  id,
			Distance: 1.0 - cosineSimilarity(query, vec),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryIndex) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.vectors, id)
	}
	return nil
}

func (s *MemoryIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}
