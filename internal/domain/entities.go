package domain

import "time"

// PolicyDocument describes one adopted policy document in the corpus.
type PolicyDocument struct {
	Key         string
	Title       string
	Authority   string
	SourcePath  string
	AdoptedYear int
}

// PolicyChunk is one indexed passage of a policy document. Chunks are
// created at load time and read-only afterwards.
type PolicyChunk struct {
	ID           string
	DocKey       string
	DocTitle     string
	Authority    string
	PageStart    int
	PageEnd      int
	ParagraphRef string
	Text         string
	SourcePath   string
	AdoptedYear  int
}

// SimilarityHit is one raw result from the similarity index.
// Distance is cosine distance (1 - cosine similarity): lower is more
// similar, 0 is identical. The convention is fixed here and every index
// implementation must honor it.
type SimilarityHit struct {
	ChunkID  string
	Distance float64
}

// RankedEvidence is one scored, provenance-carrying evidence item.
type RankedEvidence struct {
	ChunkID      string  `json:"chunk_id"`
	DocKey       string  `json:"doc_key"`
	DocTitle     string  `json:"doc_title"`
	Authority    string  `json:"authority,omitempty"`
	PageStart    int     `json:"page_start"`
	PageEnd      int     `json:"page_end"`
	ParagraphRef string  `json:"paragraph_ref,omitempty"`
	Excerpt      string  `json:"excerpt"`
	Score        float64 `json:"score"`
	SourcePath   string  `json:"source_path"`
}

// RankDiagnostics accompanies a ranked result set. Unresolved hits are
// dropped, not fatal; the caller decides whether to warn.
type RankDiagnostics struct {
	HitsIn        int      `json:"hits_in"`
	Dropped       int      `json:"dropped"`
	UnresolvedIDs []string `json:"unresolved_ids,omitempty"`
	AvgScore      float64  `json:"avg_score"`
}

// WeightConfig is a versioned set of ranking weights. It is loaded once
// per ranking run and never mutated mid-run; only the tuner produces new
// versions.
type WeightConfig struct {
	Version    int                `json:"version"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Similarity float64            `json:"similarity_weight"`
	Recency    float64            `json:"recency_decay"`
	Keyword    float64            `json:"keyword_boost"`
	Topic      float64            `json:"topic_penalty"`
	ScoreFloor float64            `json:"min_score_floor"`
	DocBoost   map[string]float64 `json:"doc_boost,omitempty"`
}

// Clone returns a deep copy so tuning never aliases the stored config.
func (w WeightConfig) Clone() WeightConfig {
	out := w
	if w.DocBoost != nil {
		out.DocBoost = make(map[string]float64, len(w.DocBoost))
		for k, v := range w.DocBoost {
			out.DocBoost[k] = v
		}
	}
	return out
}

// DefaultWeights is the version-0 configuration used before any tuning
// has happened.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Version:    0,
		Similarity: 1.0,
		Recency:    0.1,
		Keyword:    0.2,
		Topic:      0.3,
		ScoreFloor: 0.0,
		DocBoost:   map[string]float64{},
	}
}

// FeedbackRecord is one append-only ledger entry: the evidence produced
// for a query plus its externally assessed quality in [0, 1].
type FeedbackRecord struct {
	ID            string           `json:"id"`
	Timestamp     time.Time        `json:"ts"`
	QueryText     string           `json:"query_text"`
	Evidence      []RankedEvidence `json:"evidence"`
	Quality       float64          `json:"quality_score"`
	WeightVersion int              `json:"weight_version"`
}

// TuningDecision is the outcome of one tuner invocation. When Updated is
// false the weights are the input weights, untouched, and Rationale is
// empty.
type TuningDecision struct {
	Updated   bool         `json:"updated"`
	Weights   WeightConfig `json:"weights"`
	Rationale []string     `json:"rationale,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}
