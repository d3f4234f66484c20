package store

import (
	"errors"
	"path/filepath"
	"testing"

	"policyrag/internal/domain"
)

func newTestCorpus(t *testing.T) *BoltCorpus {
	t.Helper()
	s, err := NewBoltCorpus(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("NewBoltCorpus: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResolveJoinsDocumentMetadata(t *testing.T) {
	s := newTestCorpus(t)

	doc := domain.PolicyDocument{
		Key:         "nppf_2024",
		Title:       "National Planning Policy Framework",
		Authority:   "MHCLG",
		SourcePath:  "corpus/nppf_2024.txt",
		AdoptedYear: 2024,
	}
	if err := s.PutDocument(doc); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}

	chunks := []domain.PolicyChunk{
		{ID: "c1", DocKey: "nppf_2024", PageStart: 3, PageEnd: 4, ParagraphRef: "pp.3-4#c0", Text: "development in the green belt"},
		{ID: "c2", DocKey: "nppf_2024", PageStart: 5, PageEnd: 5, ParagraphRef: "pp.5-5#c1", Text: "design quality"},
	}
	if err := s.PutChunks(chunks); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	chunk, err := s.Resolve("c1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if chunk.Text != "development in the green belt" {
		t.Errorf("wrong text: %q", chunk.Text)
	}
	if chunk.DocTitle != doc.Title || chunk.Authority != doc.Authority {
		t.Errorf("document metadata not joined: %+v", chunk)
	}
	if chunk.AdoptedYear != 2024 || chunk.SourcePath != doc.SourcePath {
		t.Errorf("document metadata not joined: %+v", chunk)
	}
	if chunk.PageStart != 3 || chunk.PageEnd != 4 || chunk.ParagraphRef != "pp.3-4#c0" {
		t.Errorf("chunk metadata lost: %+v", chunk)
	}
}

func TestResolveMissingChunk(t *testing.T) {
	s := newTestCorpus(t)

	_, err := s.Resolve("nope")
	if err == nil {
		t.Fatal("expected an error for a missing chunk")
	}
	if !errors.Is(err, domain.ErrChunkNotFound) {
		t.Errorf("expected ErrChunkNotFound, got %v", err)
	}
}

func TestDeleteChunksByDoc(t *testing.T) {
	s := newTestCorpus(t)

	if err := s.PutChunks([]domain.PolicyChunk{
		{ID: "a1", DocKey: "dap_2020", Text: "one"},
		{ID: "a2", DocKey: "dap_2020", Text: "two"},
		{ID: "b1", DocKey: "csucp_2015", Text: "other"},
	}); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	if err := s.DeleteChunksByDoc("dap_2020"); err != nil {
		t.Fatalf("DeleteChunksByDoc: %v", err)
	}

	if _, err := s.Resolve("a1"); !errors.Is(err, domain.ErrChunkNotFound) {
		t.Errorf("a1 should be gone, got %v", err)
	}
	if _, err := s.Resolve("b1"); err != nil {
		t.Errorf("b1 should survive, got %v", err)
	}

	ids, err := s.ChunkIDsByDoc("dap_2020")
	if err != nil {
		t.Fatalf("ChunkIDsByDoc: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no chunk ids after delete, got %v", ids)
	}
}

func TestListDocuments(t *testing.T) {
	s := newTestCorpus(t)

	for _, key := range []string{"nppf_2024", "dap_2020"} {
		if err := s.PutDocument(domain.PolicyDocument{Key: key, Title: key}); err != nil {
			t.Fatalf("PutDocument: %v", err)
		}
	}

	docs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}

func TestChunkIDsByDocKeepsLoadOrder(t *testing.T) {
	s := newTestCorpus(t)

	if err := s.PutChunks([]domain.PolicyChunk{
		{ID: "z-last", DocKey: "d", Text: "1"},
		{ID: "a-first", DocKey: "d", Text: "2"},
	}); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}

	ids, err := s.ChunkIDsByDoc("d")
	if err != nil {
		t.Fatalf("ChunkIDsByDoc: %v", err)
	}
	if len(ids) != 2 || ids[0] != "z-last" || ids[1] != "a-first" {
		t.Errorf("expected load order preserved, got %v", ids)
	}
}
