package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policyrag/internal/usecase"
)

var (
	feedbackPayload string
	feedbackScore   float64
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record a quality score for a ranking run",
	Long: `Append a feedback record to the ledger: the evidence a query
produced (from a payload written by 'query --out') plus its externally
assessed quality score in [0, 1].

Examples:
  policyrag query -q "rear extension" --out run.json
  policyrag feedback --payload run.json --score 0.7`,
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.Flags().StringVar(&feedbackPayload, "payload", "", "payload file from 'query --out' (required)")
	feedbackCmd.Flags().Float64Var(&feedbackScore, "score", -1, "quality score in [0, 1] (required)")
	feedbackCmd.MarkFlagRequired("payload")
	feedbackCmd.MarkFlagRequired("score")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	data, err := os.ReadFile(feedbackPayload)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	var payload queryPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}
	if payload.Result == nil {
		return fmt.Errorf("payload has no result: %s", feedbackPayload)
	}

	ledger, err := openLedger(rootDir, cfg)
	if err != nil {
		return err
	}

	feedbackUC := usecase.NewFeedbackUseCase(ledger)
	rec, err := feedbackUC.Record(payload.Query, payload.Result.Evidence, feedbackScore, payload.Result.WeightVersion)
	if err != nil {
		return err
	}

	fmt.Printf("Recorded feedback %s (quality %.2f, weights v%d, %d evidence items)\n",
		rec.ID, rec.Quality, rec.WeightVersion, len(rec.Evidence))
	return nil
}
