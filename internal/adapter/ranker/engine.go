package ranker

import (
	"sort"
	"strings"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// Engine turns raw similarity hits into scored, deduplicated,
// provenance-carrying evidence. Rank is a pure function of its inputs
// plus the supplied weight configuration: identical hits, weights and
// topN always produce identical output.
type Engine struct {
	corpus        port.CorpusStore
	keywords      []string
	penaltyTopics []string
	referenceYear int
}

// NewEngine creates a ranking engine. Keywords and penalty topics are
// matched case-insensitively as substrings of the passage text;
// referenceYear anchors the recency term so scores do not drift with
// the wall clock.
func NewEngine(corpus port.CorpusStore, keywords, penaltyTopics []string, referenceYear int) *Engine {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			kw = append(kw, strings.ToLower(k))
		}
	}
	topics := make([]string, 0, len(penaltyTopics))
	for _, t := range penaltyTopics {
		if t != "" {
			topics = append(topics, strings.ToLower(t))
		}
	}
	return &Engine{
		corpus:        corpus,
		keywords:      kw,
		penaltyTopics: topics,
		referenceYear: referenceYear,
	}
}

type scoredHit struct {
	evidence domain.RankedEvidence
	rank     int // original retrieval rank, tie-breaker
}

// Rank scores hits with the given weights, deduplicates by chunk id
// keeping the better occurrence, sorts by score descending (ties broken
// by ascending retrieval rank) and truncates to topN.
//
// A hit whose chunk id cannot be resolved is dropped and counted in the
// diagnostics; a single broken reference never fails the run.
func (e *Engine) Rank(hits []domain.SimilarityHit, weights domain.WeightConfig, topN int) ([]domain.RankedEvidence, domain.RankDiagnostics, error) {
	diag := domain.RankDiagnostics{HitsIn: len(hits)}
	if len(hits) == 0 || topN <= 0 {
		return nil, diag, nil
	}

	best := make(map[string]scoredHit, len(hits))
	for rank, hit := range hits {
		chunk, err := e.corpus.Resolve(hit.ChunkID)
		if err != nil {
			diag.Dropped++
			diag.UnresolvedIDs = append(diag.UnresolvedIDs, hit.ChunkID)
			continue
		}

		score := e.score(chunk, hit.Distance, weights)
		prev, seen := best[chunk.ID]
		if seen && (prev.evidence.Score > score || (prev.evidence.Score == score && prev.rank <= rank)) {
			continue
		}
		best[chunk.ID] = scoredHit{
			evidence: domain.RankedEvidence{
				ChunkID:      chunk.ID,
				DocKey:       chunk.DocKey,
				DocTitle:     chunk.DocTitle,
				Authority:    chunk.Authority,
				PageStart:    chunk.PageStart,
				PageEnd:      chunk.PageEnd,
				ParagraphRef: chunk.ParagraphRef,
				Excerpt:      chunk.Text,
				Score:        score,
				SourcePath:   chunk.SourcePath,
			},
			rank: rank,
		}
	}

	ranked := make([]scoredHit, 0, len(best))
	for _, sh := range best {
		ranked = append(ranked, sh)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].evidence.Score != ranked[j].evidence.Score {
			return ranked[i].evidence.Score > ranked[j].evidence.Score
		}
		return ranked[i].rank < ranked[j].rank
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]domain.RankedEvidence, len(ranked))
	var sum float64
	for i, sh := range ranked {
		out[i] = sh.evidence
		sum += sh.evidence.Score
	}
	if len(out) > 0 {
		diag.AvgScore = sum / float64(len(out))
	}

	return out, diag, nil
}

// score computes the final relevance score for one passage:
//
//	similarity_weight * (1 - distance)   clamped into [0, 1]
//	+ doc_boost[doc_key]
//	+ keyword_boost * min(hits, 3) / 3
//	- topic_penalty * topicHits
//	+ recency_decay * 1 / (1 + age_years)
//
// floored at min_score_floor. The floor is monotone so it never
// reorders items.
func (e *Engine) score(chunk domain.PolicyChunk, distance float64, w domain.WeightConfig) float64 {
	score := w.Similarity * normalize(distance)

	if boost, ok := w.DocBoost[chunk.DocKey]; ok {
		score += boost
	}

	text := strings.ToLower(chunk.Text)

	if w.Keyword != 0 {
		hits := countHits(text, e.keywords)
		if hits > 3 {
			hits = 3
		}
		score += w.Keyword * float64(hits) / 3.0
	}

	if w.Topic != 0 {
		score -= w.Topic * float64(countHits(text, e.penaltyTopics))
	}

	if w.Recency != 0 && chunk.AdoptedYear > 0 {
		age := e.referenceYear - chunk.AdoptedYear
		if age < 0 {
			age = 0
		}
		score += w.Recency / float64(1+age)
	}

	if score < w.ScoreFloor {
		score = w.ScoreFloor
	}
	return score
}

// normalize maps cosine distance (lower = more similar) onto a [0, 1]
// relevance scale: 1 - d, clamped.
func normalize(distance float64) float64 {
	s := 1.0 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}
