// Package config loads and validates docsearch configuration from YAML,
// with environment variable overrides for deployment tuning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veridoc-labs/docsearch/internal/errors"
)

// Config represents the complete docsearch configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig configures corpus and index locations.
type PathsConfig struct {
	// Corpus is the JSONL corpus file produced by the ingestion pipeline.
	Corpus string `yaml:"corpus"`
	// IndexDir is the directory holding persisted indices.
	IndexDir string `yaml:"index_dir"`
}

// SearchConfig configures hybrid ranking parameters.
//
// The fusion constants are deployment tuning knobs, not calibrated values;
// the defaults come from the corpus this engine was first tuned on.
// Override via config file or env vars (DOCSEARCH_ALPHA, etc.).
type SearchConfig struct {
	// Alpha is the semantic weight in [0,1]; the lexical weight is 1-alpha.
	Alpha float64 `yaml:"alpha"`

	// SemanticThreshold drops vector candidates below this similarity.
	SemanticThreshold float64 `yaml:"semantic_threshold"`

	// OverlapPenalty is subtracted from chunks sharing no vocabulary with
	// the query. The main lever against semantic-only false positives.
	OverlapPenalty float64 `yaml:"overlap_penalty"`

	// ExactMatchBonus is added when the whole normalized query appears
	// verbatim in a chunk. Protects literal phrase lookups.
	ExactMatchBonus float64 `yaml:"exact_match_bonus"`

	// MinScore drops ranked results scoring below this value. Fallback
	// results are exempt.
	MinScore float64 `yaml:"min_score"`

	// SemanticTopK is the candidate count requested from the vector index.
	SemanticTopK int `yaml:"semantic_topk"`

	// DefaultLimit is the result count when the caller passes none.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps the requested result count.
	MaxLimit int `yaml:"max_limit"`

	// Timeout bounds the capability calls of a single search.
	Timeout time.Duration `yaml:"timeout"`

	// ExcerptLength bounds result excerpts, in runes.
	ExcerptLength int `yaml:"excerpt_length"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	Provider string `yaml:"provider"`
	// Model is the embedding model name (ollama only).
	Model string `yaml:"model"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
	// Dimensions is the embedding dimension; 0 means auto-detect.
	Dimensions int `yaml:"dimensions"`
	// CacheSize is the query embedding LRU cache size.
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Corpus:   "corpus.jsonl",
			IndexDir: ".docsearch",
		},
		Search: SearchConfig{
			Alpha:             0.4,
			SemanticThreshold: 0.0,
			OverlapPenalty:    0.2,
			ExactMatchBonus:   0.2,
			MinScore:          0.05,
			SemanticTopK:      50,
			DefaultLimit:      5,
			MaxLimit:          100,
			Timeout:           5 * time.Second,
			ExcerptLength:     500,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist, then applies env overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, errors.Wrap(errors.ErrCodeConfigNotFound, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies DOCSEARCH_* environment variables.
// Env vars take priority over both defaults and file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCSEARCH_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.Alpha = f
		}
	}
	if v := os.Getenv("DOCSEARCH_SEMANTIC_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.SemanticThreshold = f
		}
	}
	if v := os.Getenv("DOCSEARCH_OLLAMA_HOST"); v != "" {
		cfg.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCSEARCH_EMBED_PROVIDER"); v != "" {
		cfg.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCSEARCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	s := c.Search
	if s.Alpha < 0 || s.Alpha > 1 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.alpha %.3f outside [0,1]", s.Alpha)
	}
	if s.OverlapPenalty < 0 || s.OverlapPenalty > 1 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.overlap_penalty %.3f outside [0,1]", s.OverlapPenalty)
	}
	if s.ExactMatchBonus < 0 || s.ExactMatchBonus > 1 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.exact_match_bonus %.3f outside [0,1]", s.ExactMatchBonus)
	}
	if s.SemanticThreshold < -1 || s.SemanticThreshold > 1 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.semantic_threshold %.3f outside [-1,1]", s.SemanticThreshold)
	}
	if s.SemanticTopK <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.semantic_topk must be positive, got %d", s.SemanticTopK)
	}
	if s.DefaultLimit <= 0 || s.MaxLimit < s.DefaultLimit {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search limits invalid: default %d, max %d", s.DefaultLimit, s.MaxLimit)
	}
	if s.Timeout <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.timeout must be positive, got %s", s.Timeout)
	}
	if s.ExcerptLength <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "search.excerpt_length must be positive, got %d", s.ExcerptLength)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid, "unknown embeddings.provider %q", c.Embeddings.Provider)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
