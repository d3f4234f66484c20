package cli

import (
	"fmt"
	"os"

	"policyrag/config"
	"policyrag/internal/adapter/embedding"
	"policyrag/internal/adapter/index"
	"policyrag/internal/adapter/ledger"
	"policyrag/internal/adapter/store"
	"policyrag/internal/port"
)

// newEmbedder builds the configured embedding provider.
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

// openCorpus opens the corpus database, failing when the corpus has not
// been loaded yet.
func openCorpus(rootDir string) (*store.BoltCorpus, error) {
	dbPath := config.CorpusDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no corpus found at %s. Run 'policyrag load' first", dbPath)
	}
	corpus, err := store.NewBoltCorpus(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	return corpus, nil
}

// openIndex opens the similarity index sharing the corpus database.
func openIndex(corpus *store.BoltCorpus, dimension int) (*index.BoltIndex, error) {
	idx, err := index.NewBoltIndex(corpus.DB(), dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open similarity index: %w", err)
	}
	return idx, nil
}

// openWeights opens the weight store sharing the corpus database.
func openWeights(corpus *store.BoltCorpus) (*store.BoltWeightStore, error) {
	ws, err := store.NewBoltWeightStore(corpus.DB())
	if err != nil {
		return nil, fmt.Errorf("failed to open weight store: %w", err)
	}
	return ws, nil
}

// openLedger opens the feedback ledger.
func openLedger(rootDir string, cfg *config.Config) (*ledger.JSONLLedger, error) {
	l, err := ledger.NewJSONLLedger(config.LedgerPath(rootDir, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback ledger: %w", err)
	}
	return l, nil
}
