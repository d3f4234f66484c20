package memstore

import (
	"fmt"
	"sync"

	"policyrag/internal/domain"
)

// MemoryCorpus is an in-memory port.CorpusStore for tests and
// short-lived pipelines.
type MemoryCorpus struct {
	mu     sync.RWMutex
	docs   map[string]domain.PolicyDocument
	chunks map[string]domain.PolicyChunk
}

func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{
		docs:   make(map[string]domain.PolicyDocument),
		chunks: make(map[string]domain.PolicyChunk),
	}
}

func (s *MemoryCorpus) PutDocument(doc domain.PolicyDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Key] = doc
	return nil
}

func (s *MemoryCorpus) GetDocument(key string) (domain.PolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return domain.PolicyDocument{}, fmt.Errorf("document not found: %s", key)
	}
	return doc, nil
}

func (s *MemoryCorpus) ListDocuments() ([]domain.PolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.PolicyDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryCorpus) PutChunks(chunks []domain.PolicyChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

func (s *MemoryCorpus) Resolve(id string) (domain.PolicyChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return domain.PolicyChunk{}, fmt.Errorf("%w: %s", domain.ErrChunkNotFound, id)
	}
	return chunk, nil
}

func (s *MemoryCorpus) DeleteChunksByDoc(docKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.DocKey == docKey {
			delete(s.chunks, id)
		}
	}
	return nil
}

func (s *MemoryCorpus) Close() error {
	return nil
}
