package embed

import (
	"log/slog"

	"github.com/veridoc-labs/docsearch/internal/config"
)

// NewFromConfig builds the embedder stack selected by configuration:
// the provider wrapped in an LRU cache. Unknown providers fall back to the
// static embedder so index builds and searches always have some semantic
// signal available.
func NewFromConfig(cfg config.EmbeddingsConfig) Embedder {
	var inner Embedder
	switch cfg.Provider {
	case "ollama":
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case "static":
		inner = NewStaticEmbedder()
	default:
		slog.Warn("unknown embedding provider, using static fallback",
			slog.String("provider", cfg.Provider))
		inner = NewStaticEmbedder()
	}
	return NewCachedEmbedder(inner, cfg.CacheSize)
}
