package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policyrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "policyrag",
	Short: "Policy evidence retrieval with feedback-tuned ranking",
	Long: `policyrag surfaces the most relevant passages from a corpus of
planning-policy documents for a proposed development, ranks them with
versioned weights, and tunes those weights from accumulated feedback.

Example usage:
  policyrag load ./policies --authority newcastle      # Load policy text
  policyrag query -q "rear extension" --out run.json   # Rank evidence
  policyrag feedback --payload run.json --score 0.7    # Record quality
  policyrag tune                                       # Adjust weights`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./policyrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
