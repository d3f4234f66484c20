// Benchmark probes the similarity index directly: raw distances for a
// query, before any weighting. Useful for judging embedding quality and
// for confirming the distance convention against a loaded corpus.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"policyrag/config"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/index"
	"policyrag/internal/adapter/store"
	"policyrag/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding the loaded corpus")
	query := flag.String("q", "", "Proposal text to test")
	topK := flag.Int("k", 10, "Number of raw hits")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"single storey rear extension\"")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	corpus, err := store.NewBoltCorpus(config.CorpusDBPath(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening corpus: %v\n", err)
		os.Exit(1)
	}
	defer corpus.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding not available: %v\n", err)
		os.Exit(1)
	}

	idx, err := index.NewBoltIndex(corpus.DB(), embedder.Dimension())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SIMILARITY INDEX BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := idx.Count()
	fmt.Printf("Passages indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n\n", embedder.Dimension())

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	vectors, err := embedder.Embed([]string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	hits, err := idx.Query(vectors[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		os.Exit(1)
	}
	if len(hits) == 0 {
		fmt.Println("No hits; is the corpus loaded?")
		return
	}

	fmt.Printf("Top %d raw hits (cosine distance, lower = more similar):\n\n", len(hits))

	var totalDist float64
	for i, h := range hits {
		totalDist += h.Distance

		chunk, err := corpus.Resolve(h.ChunkID)
		if err != nil {
			fmt.Printf("%d. [%.3f] %s (unresolved!)\n\n", i+1, h.Distance, h.ChunkID)
			continue
		}

		preview := strings.ReplaceAll(chunk.Text, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		fmt.Printf("%d. [%.3f] %s pp.%d-%d\n", i+1, h.Distance, chunk.DocTitle, chunk.PageStart, chunk.PageEnd)
		fmt.Printf("   %s\n\n", preview)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Average distance: %.3f\n", totalDist/float64(len(hits)))
	fmt.Printf("Best distance:    %.3f\n", hits[0].Distance)
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai", "":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize, e.Timeout())
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension, e.BatchSize, e.Timeout()), nil
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}
