package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"policyrag/internal/adapter/cache"
	"policyrag/internal/adapter/ranker"
	"policyrag/internal/usecase"
)

var (
	queryText string
	queryTopN int
	queryJSON bool
	queryOut  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank policy evidence for a proposed development",
	Long: `Search the policy corpus for passages relevant to a proposal
description and rank them under the current weight configuration.

Examples:
  policyrag query -q "single storey rear extension to dwellinghouse"
  policyrag query -q "change of use to residential" --top-n 5 --json
  policyrag query -q "loft conversion with dormer" --out run.json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "proposal description (required)")
	queryCmd.Flags().IntVarP(&queryTopN, "top-n", "n", 0, "number of evidence items (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryOut, "out", "", "write the full result payload to this file")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	corpus, err := openCorpus(rootDir)
	if err != nil {
		return err
	}
	defer corpus.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	idx, err := openIndex(corpus, embedder.Dimension())
	if err != nil {
		return err
	}
	weights, err := openWeights(corpus)
	if err != nil {
		return err
	}

	engine := ranker.NewEngine(corpus, cfg.Ranking.Keywords, cfg.Ranking.PenaltyTopics, cfg.Ranking.ReferenceYear)
	diversity := ranker.NewDiversityReranker(cfg.Retrieve.DiversityTarget)
	queryCache := cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLMinutes)*time.Minute)

	retrieveUC := usecase.NewRetrieveUseCase(embedder, idx, engine, diversity, weights, queryCache, cfg.Retrieve.CandidateK)

	topN := cfg.Retrieve.TopN
	if queryTopN > 0 {
		topN = queryTopN
	}

	result, err := retrieveUC.Retrieve(queryText, topN)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryOut != "" {
		payload := queryPayload{Query: queryText, Result: result}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(queryOut, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if queryJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Evidence) == 0 {
		fmt.Println("No evidence found.")
		return nil
	}

	fmt.Printf("Found %d evidence items for: %s (weights v%d)\n\n", len(result.Evidence), queryText, result.WeightVersion)
	for i, e := range result.Evidence {
		fmt.Printf("--- [%d] %s pp.%d-%d (score: %.3f) ---\n", i+1, e.DocTitle, e.PageStart, e.PageEnd, e.Score)
		text := e.Excerpt
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	if result.Diagnostics.Dropped > 0 {
		fmt.Fprintf(os.Stderr, "warning: dropped %d unresolved hits (corpus/index desync?)\n", result.Diagnostics.Dropped)
	}

	return nil
}

// queryPayload is the file form of a ranking run, consumed later by the
// feedback command.
type queryPayload struct {
	Query  string                  `json:"query"`
	Result *usecase.RetrieveResult `json:"result"`
}
