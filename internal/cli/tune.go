package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"policyrag/internal/adapter/tuner"
	"policyrag/internal/usecase"
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Adjust ranking weights from accumulated feedback",
	Long: `Run one tuning cycle over the most recent feedback records.
Weights only change once enough records have accumulated, every
adjustment is clamped to a small bounded step, and the new version
records which feedback contributed.

Examples:
  policyrag tune`,
	RunE: runTune,
}

func init() {
	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	corpus, err := openCorpus(rootDir)
	if err != nil {
		return err
	}
	defer corpus.Close()

	weights, err := openWeights(corpus)
	if err != nil {
		return err
	}
	ledger, err := openLedger(rootDir, cfg)
	if err != nil {
		return err
	}

	t := tuner.New(tuner.Options{
		MinRecords:    cfg.Tuning.MinRecords,
		MaxStep:       cfg.Tuning.MaxStep,
		QualityTarget: cfg.Tuning.QualityTarget,
		Floor:         cfg.Tuning.FloorDefault,
		Ceil:          cfg.Tuning.CeilDefault,
	})
	tuneUC := usecase.NewTuneUseCase(ledger, weights, t, cfg.Tuning.BatchSize)

	decision, err := tuneUC.Tune()
	if err != nil {
		return fmt.Errorf("tuning failed: %w", err)
	}

	if !decision.Updated {
		fmt.Printf("No change: %s\n", decision.Reason)
		return nil
	}

	fmt.Printf("Weights updated to v%d from %d feedback records\n",
		decision.Weights.Version, len(decision.Rationale))
	fmt.Printf("  similarity_weight: %.3f\n", decision.Weights.Similarity)
	fmt.Printf("  keyword_boost:     %.3f\n", decision.Weights.Keyword)
	fmt.Printf("  topic_penalty:     %.3f\n", decision.Weights.Topic)
	for doc, boost := range decision.Weights.DocBoost {
		fmt.Printf("  doc_boost[%s]: %.3f\n", doc, boost)
	}
	return nil
}
