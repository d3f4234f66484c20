package usecase

import (
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"policyrag/internal/adapter/cache"
	"policyrag/internal/adapter/chunker"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/index"
	"policyrag/internal/adapter/memstore"
	"policyrag/internal/adapter/ranker"
	"policyrag/internal/adapter/store"
	"policyrag/internal/domain"
	"policyrag/internal/port"
)

const testDim = 16

// countingEmbedder wraps an embedder to observe cache behavior: a cache
// hit never reaches Embed.
type countingEmbedder struct {
	inner port.Embedder
	calls int
}

func (c *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	c.calls++
	return c.inner.Embed(texts)
}

func (c *countingEmbedder) Dimension() int    { return c.inner.Dimension() }
func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }

type pipeline struct {
	embedder *countingEmbedder
	corpus   *memstore.MemoryCorpus
	index    *index.MemoryIndex
	weights  *store.BoltWeightStore
	cache    *cache.QueryCache
	retrieve *RetrieveUseCase
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "weights.db"), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	weights, err := store.NewBoltWeightStore(db)
	if err != nil {
		t.Fatalf("NewBoltWeightStore: %v", err)
	}

	p := &pipeline{
		embedder: &countingEmbedder{inner: embedding.NewMockEmbedder(testDim)},
		corpus:   memstore.NewMemoryCorpus(),
		index:    index.NewMemoryIndex(testDim),
		weights:  weights,
		cache:    cache.NewQueryCache(10, time.Minute),
	}
	engine := ranker.NewEngine(p.corpus, nil, nil, 2025)
	p.retrieve = NewRetrieveUseCase(p.embedder, p.index, engine, nil, weights, p.cache, 30)
	return p
}

func (p *pipeline) addChunk(t *testing.T, id, docKey, text string) {
	t.Helper()
	if err := p.corpus.PutChunks([]domain.PolicyChunk{{ID: id, DocKey: docKey, Text: text}}); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}
	vectors, err := p.embedder.inner.Embed([]string{text})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if err := p.index.Upsert([]port.VectorItem{{ID: id, Vector: vectors[0]}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestRetrieveRanksClosestFirst(t *testing.T) {
	p := newPipeline(t)
	p.addChunk(t, "c1", "nppf", "residential extensions and amenity")
	p.addChunk(t, "c2", "dap", "wind turbine noise assessment")

	result, err := p.retrieve.Retrieve("residential extensions and amenity", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Evidence) != 2 {
		t.Fatalf("expected 2 evidence items, got %d", len(result.Evidence))
	}
	if result.Evidence[0].ChunkID != "c1" {
		t.Errorf("expected the matching passage first, got %s", result.Evidence[0].ChunkID)
	}
	if result.WeightVersion != 0 {
		t.Errorf("fresh store should report weight version 0, got %d", result.WeightVersion)
	}
	if result.Diagnostics.AvgScore <= 0 {
		t.Errorf("expected a positive average score, got %f", result.Diagnostics.AvgScore)
	}
}

func TestRetrieveRejectsNonPositiveTopN(t *testing.T) {
	p := newPipeline(t)

	if _, err := p.retrieve.Retrieve("anything", 0); err == nil {
		t.Error("expected an error for top_n = 0")
	}
	if _, err := p.retrieve.Retrieve("anything", -3); err == nil {
		t.Error("expected an error for negative top_n")
	}
}

func TestRetrieveCachesByWeightVersion(t *testing.T) {
	p := newPipeline(t)
	p.addChunk(t, "c1", "nppf", "green belt policy")

	if _, err := p.retrieve.Retrieve("green belt policy", 1); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	callsAfterFirst := p.embedder.calls

	// Second identical run comes from the cache.
	if _, err := p.retrieve.Retrieve("green belt policy", 1); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if p.embedder.calls != callsAfterFirst {
		t.Errorf("expected a cache hit, embedder called %d more times", p.embedder.calls-callsAfterFirst)
	}

	// A weight update bumps the version and invalidates the cache.
	if _, err := p.weights.Save(domain.DefaultWeights(), port.WeightProvenance{Note: "manual"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	result, err := p.retrieve.Retrieve("green belt policy", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if p.embedder.calls != callsAfterFirst+1 {
		t.Error("expected a re-rank after the weight version changed")
	}
	if result.WeightVersion != 1 {
		t.Errorf("expected weight version 1, got %d", result.WeightVersion)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	p := newPipeline(t)

	result, err := p.retrieve.Retrieve("no corpus loaded", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Evidence) != 0 {
		t.Errorf("expected no evidence, got %d items", len(result.Evidence))
	}
}

func TestLoadDocumentThenRetrieve(t *testing.T) {
	p := newPipeline(t)

	load := NewLoadUseCase(p.corpus, p.index, p.embedder, chunker.NewPageChunker(1500), nil)

	doc := domain.PolicyDocument{Key: "nppf_2024", Title: "NPPF", Authority: "MHCLG", AdoptedYear: 2024}
	content := "=== PAGE 12 ===\nProposals affecting the green belt are assessed against openness."
	n, err := load.LoadDocument(doc, content)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 chunk loaded, got %d", n)
	}

	result, err := p.retrieve.Retrieve("Proposals affecting the green belt are assessed against openness.", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(result.Evidence) != 1 {
		t.Fatalf("expected 1 evidence item, got %d", len(result.Evidence))
	}
	ev := result.Evidence[0]
	if ev.DocKey != "nppf_2024" || ev.PageStart != 12 {
		t.Errorf("evidence provenance wrong: %+v", ev)
	}
}

func TestLoadDocumentReplacesPreviousChunks(t *testing.T) {
	p := newPipeline(t)
	load := NewLoadUseCase(p.corpus, p.index, p.embedder, chunker.NewPageChunker(1500), nil)

	doc := domain.PolicyDocument{Key: "dap_2020"}
	if _, err := load.LoadDocument(doc, "original passage text"); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if _, err := load.LoadDocument(doc, "revised passage text"); err != nil {
		t.Fatalf("LoadDocument reload: %v", err)
	}

	result, err := p.retrieve.Retrieve("revised passage text", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, ev := range result.Evidence {
		if ev.Excerpt == "original passage text" {
			t.Error("stale chunk survived a reload")
		}
	}
}
