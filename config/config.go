package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the policy evidence engine.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Tuning    TuningConfig    `yaml:"tuning"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
}

// CorpusConfig holds corpus loading configuration.
type CorpusConfig struct {
	Includes   []string `yaml:"includes"`
	Excludes   []string `yaml:"excludes"`
	ChunkChars int      `yaml:"chunk_chars"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model          string `yaml:"model"`       // e.g. "text-embedding-3-small"
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL        string `yaml:"base_url"`
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the embedding call timeout.
func (c EmbeddingConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetrieveConfig holds similarity search configuration.
type RetrieveConfig struct {
	TopN            int `yaml:"top_n"`
	CandidateK      int `yaml:"candidate_k"`      // raw hits fetched before ranking
	DiversityTarget int `yaml:"diversity_target"` // distinct documents to surface (0 = disabled)
	CacheSize       int `yaml:"cache_size"`
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
}

// RankingConfig holds the static inputs of the scoring formula. The
// tunable weights themselves live in the weight store, not here.
type RankingConfig struct {
	ReferenceYear int      `yaml:"reference_year"` // recency is measured against this year
	Keywords      []string `yaml:"keywords"`       // terms that boost a passage
	PenaltyTopics []string `yaml:"penalty_topics"` // terms that downrank a passage
}

// TuningConfig bounds the weight tuner.
type TuningConfig struct {
	MinRecords    int     `yaml:"min_records"`
	BatchSize     int     `yaml:"batch_size"`
	MaxStep       float64 `yaml:"max_step"`
	QualityTarget float64 `yaml:"quality_target"`
	FloorDefault  float64 `yaml:"floor_default"`
	CeilDefault   float64 `yaml:"ceil_default"`
}

// FeedbackConfig holds ledger configuration.
type FeedbackConfig struct {
	LedgerPath string `yaml:"ledger_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Includes:   []string{"**/*.txt"},
			Excludes:   []string{"**/.policyrag/**"},
			ChunkChars: 1500,
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      1536,
			BatchSize:      100,
			TimeoutSeconds: 60,
		},
		Retrieve: RetrieveConfig{
			TopN:            10,
			CandidateK:      30,
			DiversityTarget: 3,
			CacheSize:       100,
			CacheTTLMinutes: 5,
		},
		Ranking: RankingConfig{
			ReferenceYear: 2025,
			Keywords: []string{
				"dwelling", "residential", "housing", "amenity", "privacy",
				"outlook", "noise", "parking", "design", "character",
				"heritage", "conservation", "materials", "change of use",
			},
			PenaltyTopics: []string{
				"leisure", "tourism", "nightclub", "cinema", "museum", "arena",
			},
		},
		Tuning: TuningConfig{
			MinRecords:    3,
			BatchSize:     10,
			MaxStep:       0.05,
			QualityTarget: 0.6,
			FloorDefault:  0.0,
			CeilDefault:   2.0,
		},
		Feedback: FeedbackConfig{
			LedgerPath: "feedback.jsonl",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for policyrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "policyrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".policyrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CorpusDBPath returns the path to the corpus and weight database.
func CorpusDBPath(dir string) string {
	return filepath.Join(dir, ".policyrag", "corpus.db")
}

// LedgerPath returns the path to the feedback ledger file.
func LedgerPath(dir string, cfg *Config) string {
	if filepath.IsAbs(cfg.Feedback.LedgerPath) {
		return cfg.Feedback.LedgerPath
	}
	return filepath.Join(dir, ".policyrag", cfg.Feedback.LedgerPath)
}

// EnsureDataDir ensures the .policyrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".policyrag"), 0755)
}
