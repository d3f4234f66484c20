package port

import "policyrag/internal/domain"

// CorpusStore resolves chunk ids to passage metadata and holds the
// loaded policy corpus.
type CorpusStore interface {
	// Resolve returns the chunk for id, or an error wrapping
	// domain.ErrChunkNotFound when the id is unknown.
	Resolve(id string) (domain.PolicyChunk, error)

	PutChunks(chunks []domain.PolicyChunk) error

	PutDocument(doc domain.PolicyDocument) error

	GetDocument(key string) (domain.PolicyDocument, error)

	ListDocuments() ([]domain.PolicyDocument, error)

	DeleteChunksByDoc(docKey string) error

	Close() error
}
