package usecase

import (
	"fmt"

	"policyrag/internal/adapter/cache"
	"policyrag/internal/adapter/ranker"
	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// RetrieveUseCase runs one ranking pipeline: embed the query, fetch raw
// similarity hits, score them under the current weights, optionally
// enforce document diversity, truncate to topN.
type RetrieveUseCase struct {
	embedder   port.Embedder
	index      port.SimilarityIndex
	engine     *ranker.Engine
	diversity  port.EvidenceReranker
	weights    port.WeightStore
	cache      *cache.QueryCache
	candidateK int
}

// NewRetrieveUseCase creates the pipeline. diversity and queryCache may
// be nil to disable those stages; candidateK is the raw hit pool
// fetched before ranking.
func NewRetrieveUseCase(
	embedder port.Embedder,
	index port.SimilarityIndex,
	engine *ranker.Engine,
	diversity port.EvidenceReranker,
	weights port.WeightStore,
	queryCache *cache.QueryCache,
	candidateK int,
) *RetrieveUseCase {
	if candidateK <= 0 {
		candidateK = 30
	}
	return &RetrieveUseCase{
		embedder:   embedder,
		index:      index,
		engine:     engine,
		diversity:  diversity,
		weights:    weights,
		cache:      queryCache,
		candidateK: candidateK,
	}
}

// RetrieveResult carries the ranked evidence with its provenance: the
// diagnostics and the weight version the run used.
type RetrieveResult struct {
	Evidence      []domain.RankedEvidence `json:"evidence"`
	Diagnostics   domain.RankDiagnostics  `json:"diagnostics"`
	WeightVersion int                     `json:"weight_version"`
}

// Retrieve ranks evidence for the query. A corrupt weight store or a
// failed index query aborts the whole run; unresolved chunk ids are
// dropped per-hit and reported in the diagnostics.
func (u *RetrieveUseCase) Retrieve(query string, topN int) (*RetrieveResult, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("top_n must be positive, got %d", topN)
	}

	weights, err := u.weights.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking weights: %w", err)
	}

	if u.cache != nil {
		if evidence, diag, ok := u.cache.Get(query, topN, weights.Version); ok {
			return &RetrieveResult{Evidence: evidence, Diagnostics: diag, WeightVersion: weights.Version}, nil
		}
	}

	vectors, err := u.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %v", domain.ErrIndexUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedding returned empty result", domain.ErrIndexUnavailable)
	}

	k := u.candidateK
	if k < topN {
		k = topN
	}
	hits, err := u.index.Query(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	// Rank the full candidate pool so the diversity pass has choices,
	// then cut down to topN.
	evidence, diag, err := u.engine.Rank(hits, weights, k)
	if err != nil {
		return nil, err
	}

	if u.diversity != nil {
		evidence = u.diversity.Rerank(evidence)
	}
	if len(evidence) > topN {
		evidence = evidence[:topN]
	}
	diag.AvgScore = avgScore(evidence)

	if u.cache != nil {
		u.cache.Put(query, topN, weights.Version, evidence, diag)
	}

	return &RetrieveResult{
		Evidence:      evidence,
		Diagnostics:   diag,
		WeightVersion: weights.Version,
	}, nil
}

func avgScore(evidence []domain.RankedEvidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	var sum float64
	for _, e := range evidence {
		sum += e.Score
	}
	return sum / float64(len(evidence))
}
