package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"policyrag/config"
	"policyrag/internal/adapter/chunker"
	"policyrag/internal/adapter/fs"
	"policyrag/internal/adapter/store"
	"policyrag/internal/usecase"
)

var (
	loadAuthority string
	loadYear      int
)

var loadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "Load extracted policy text into the corpus and index",
	Long: `Load extracted policy document text files into the corpus store and
the similarity index. Files are split on "=== PAGE n ===" markers into
page-ranged passages, embedded, and indexed. Each file becomes one
document keyed by its file name (e.g. dap_2020.txt -> dap_2020).

Examples:
  policyrag load ./policies --authority newcastle
  policyrag load ./policies --authority newcastle --year 2020`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadAuthority, "authority", "", "planning authority the documents belong to")
	loadCmd.Flags().IntVar(&loadYear, "year", 0, "adopted year override (default derived from file names)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	rootDir := GetRootDir()

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	corpus, err := store.NewBoltCorpus(config.CorpusDBPath(rootDir))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
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

	walker := fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes)
	chk := chunker.NewPageChunker(cfg.Corpus.ChunkChars)
	loadUC := usecase.NewLoadUseCase(corpus, idx, embedder, chk, walker)

	fmt.Printf("Loading policy text from %s...\n", path)

	var bar *progressbar.ProgressBar
	progress := func(done, total int, current string) {
		if bar == nil && total > 0 {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Loading[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		if bar != nil {
			bar.Set(done)
		}
	}

	result, err := loadUC.LoadDir(path, loadAuthority, loadYear, progress)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Printf("Loaded %d documents, %d passages (model: %s)\n",
		result.DocsLoaded, result.ChunksCreated, embedder.ModelName())
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	return nil
}
