package index

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

var bucketVectors = []byte("vectors")

// BoltIndex implements port.SimilarityIndex with bbolt persistence and
// brute-force cosine search over an in-memory copy of the vectors.
// Fine for a policy corpus of a few thousand passages; swap for HNSW if
// that ever stops being true.
type BoltIndex struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	vectors   map[string][]float32
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// NewBoltIndex opens (or creates) the vectors bucket and loads existing
// vectors into memory.
func NewBoltIndex(db *bbolt.DB, dimension int) (*BoltIndex, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}

	idx := &BoltIndex{
		db:        db,
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}

	if err := idx.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return idx, nil
}

func (s *BoltIndex) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			s.vectors[string(k)] = stored.Vector
			return nil
		})
	})
}

// Upsert adds or replaces vectors in the index.
func (s *BoltIndex) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		for _, item := range items {
			if len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
			}

			data, err := json.Marshal(storedVector{Vector: item.Vector})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
			s.vectors[item.ID] = item.Vector
		}

		return nil
	})
}

// Query returns the k nearest passages by ascending cosine distance
// (1 - cosine similarity; lower = more similar).
func (s *BoltIndex) Query(query []float32, k int) ([]domain.SimilarityHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension mismatch: expected %d, got %d",
			domain.ErrIndexUnavailable, s.dimension, len(query))
	}

	if len(s.vectors) == 0 {
		return nil, nil
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

// Delete removes vectors by chunk id.
func (s *BoltIndex) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
			delete(s.vectors, id)
		}
		return nil
	})
}

// Count returns the number of indexed vectors.
func (s *BoltIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
