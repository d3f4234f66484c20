package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var weightsHistory bool

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the current ranking weights",
	Long: `Show the active weight configuration, or with --history every
committed version together with the feedback that caused it.

Examples:
  policyrag weights
  policyrag weights --history`,
	RunE: runWeights,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.Flags().BoolVar(&weightsHistory, "history", false, "list all committed versions with provenance")
}

func runWeights(cmd *cobra.Command, args []string) error {
	rootDir := GetRootDir()

	corpus, err := openCorpus(rootDir)
	if err != nil {
		return err
	}
	defer corpus.Close()

	ws, err := openWeights(corpus)
	if err != nil {
		return err
	}

	if weightsHistory {
		revs, err := ws.History()
		if err != nil {
			return fmt.Errorf("failed to read weight history: %w", err)
		}
		if len(revs) == 0 {
			fmt.Println("No tuned versions yet; defaults (v0) are active.")
			return nil
		}
		for _, rev := range revs {
			fmt.Printf("v%d  %s  (%d feedback records)\n",
				rev.Config.Version, rev.SavedAt.Format("2006-01-02 15:04:05"), len(rev.Provenance.FeedbackIDs))
			if rev.Provenance.Note != "" {
				fmt.Printf("    %s\n", rev.Provenance.Note)
			}
		}
		return nil
	}

	cfg, err := ws.Load()
	if err != nil {
		return fmt.Errorf("failed to load weights: %w", err)
	}
	output, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(output))
	return nil
}
