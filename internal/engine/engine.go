// Package engine assembles the search stack from configuration: corpus
// store, lexical and vector indices, embedder, and retriever. The CLI and
// any embedding caller go through Engine instead of wiring the pieces
// themselves.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/veridoc-labs/docsearch/internal/config"
	"github.com/veridoc-labs/docsearch/internal/corpus"
	"github.com/veridoc-labs/docsearch/internal/embed"
	"github.com/veridoc-labs/docsearch/internal/errors"
	"github.com/veridoc-labs/docsearch/internal/index"
	"github.com/veridoc-labs/docsearch/internal/search"
	"github.com/veridoc-labs/docsearch/internal/store"
)

const (
	chunkDBFile     = "chunks.db"
	vectorIndexFile = "vectors.hnsw"
)

// Engine is an assembled, serving search stack.
type Engine struct {
	retriever *search.Retriever
	embedder  embed.Embedder
	store     *store.ChunkStore
	config    *config.Config
	logger    *slog.Logger
}

// BuildStats summarizes an ingest run.
type BuildStats struct {
	Chunks        int
	Dimensions    int
	VectorIndexed bool
	Elapsed       time.Duration
}

// searchConfig maps the file configuration onto the retriever's parameters.
func searchConfig(cfg *config.Config) search.Config {
	s := cfg.Search
	return search.Config{
		Alpha:             s.Alpha,
		SemanticThreshold: s.SemanticThreshold,
		OverlapPenalty:    s.OverlapPenalty,
		ExactMatchBonus:   s.ExactMatchBonus,
		MinScore:          s.MinScore,
		SemanticTopK:      s.SemanticTopK,
		DefaultLimit:      s.DefaultLimit,
		MaxLimit:          s.MaxLimit,
		Timeout:           s.Timeout,
		ExcerptLength:     s.ExcerptLength,
	}
}

// Build ingests the JSONL corpus: chunks are validated and persisted to the
// chunk store, and the vector index is built and saved when the embedder is
// reachable. Lexical indexing happens at load time and is not persisted.
//
// Builds are serialized across processes by a file lock on the index
// directory.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*BuildStats, error) {
	start := time.Now()

	lock := index.NewBuildLock(cfg.Paths.IndexDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("another build is in progress for %s", cfg.Paths.IndexDir)
	}
	defer func() { _ = lock.Unlock() }()

	c, err := corpus.LoadFile(cfg.Paths.Corpus)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(cfg.Paths.IndexDir, chunkDBFile))
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if err := st.SaveChunks(ctx, c.All()); err != nil {
		return nil, err
	}

	stats := &BuildStats{Chunks: c.Len()}

	embedder := embed.NewFromConfig(cfg.Embeddings)
	defer func() { _ = embedder.Close() }()

	if !embedder.Available(ctx) {
		logger.Warn("embedder unavailable, skipping vector index; searches will run lexical-only",
			slog.String("model", embedder.ModelName()))
		stats.Elapsed = time.Since(start)
		return stats, nil
	}

	vec, err := index.BuildVectorIndex(ctx, c, embedder)
	if err != nil {
		return nil, err
	}
	defer func() { _ = vec.Close() }()

	if err := vec.Save(filepath.Join(cfg.Paths.IndexDir, vectorIndexFile), embedder.ModelName()); err != nil {
		return nil, err
	}

	stats.Dimensions = vec.Dimensions()
	stats.VectorIndexed = true
	stats.Elapsed = time.Since(start)
	return stats, nil
}

// Open loads the persisted corpus and indices and returns a serving engine.
//
// A missing vector index degrades to lexical-only serving; a corrupt or
// wrong-dimension one refuses to serve. Ranking against a broken index would
// silently return wrong results, which is worse than an outage.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	st, err := store.Open(filepath.Join(cfg.Paths.IndexDir, chunkDBFile))
	if err != nil {
		return nil, err
	}

	embedder := embed.NewFromConfig(cfg.Embeddings)

	snap, err := loadSnapshot(ctx, cfg, st, embedder, logger)
	if err != nil {
		_ = embedder.Close()
		_ = st.Close()
		return nil, err
	}

	retriever, err := search.NewRetriever(snap, embedder, searchConfig(cfg), logger)
	if err != nil {
		_ = snap.Close()
		_ = embedder.Close()
		_ = st.Close()
		return nil, err
	}

	return &Engine{
		retriever: retriever,
		embedder:  embedder,
		store:     st,
		config:    cfg,
		logger:    logger,
	}, nil
}

// loadSnapshot builds an immutable snapshot from the persisted state. The
// chunk store is authoritative; when it is empty the source JSONL is loaded
// directly so a fresh checkout can search without a prior build.
func loadSnapshot(ctx context.Context, cfg *config.Config, st *store.ChunkStore, embedder embed.Embedder, logger *slog.Logger) (*search.Snapshot, error) {
	count, err := st.Count(ctx)
	if err != nil {
		return nil, err
	}

	var c *corpus.Corpus
	if count > 0 {
		c, err = st.LoadChunks(ctx)
	} else {
		logger.Info("chunk store empty, loading corpus from source",
			slog.String("path", cfg.Paths.Corpus))
		c, err = corpus.LoadFile(cfg.Paths.Corpus)
	}
	if err != nil {
		return nil, err
	}

	lexical, err := index.NewBleveLexicalIndex(c)
	if err != nil {
		return nil, err
	}

	snap := &search.Snapshot{Corpus: c, Lexical: lexical}

	vectorPath := filepath.Join(cfg.Paths.IndexDir, vectorIndexFile)
	if _, statErr := os.Stat(vectorPath + ".meta"); statErr != nil {
		if os.IsNotExist(statErr) {
			logger.Warn("vector index not found, serving lexical-only",
				slog.String("path", vectorPath))
			return snap, nil
		}
		_ = snap.Close()
		return nil, errors.IndexCorrupt("vector index sidecar unreadable", statErr)
	}

	vec, err := index.LoadHNSWIndex(vectorPath, embedder.Dimensions(), embedder.ModelName())
	if err != nil {
		_ = snap.Close()
		return nil, err
	}
	snap.Vector = vec
	return snap, nil
}

// Retriever returns the engine's retriever.
func (e *Engine) Retriever() *search.Retriever {
	return e.retriever
}

// Reload rebuilds a snapshot from the persisted state and swaps it in.
// In-flight searches finish against the old snapshot, which is closed here
// once the swap completes.
func (e *Engine) Reload(ctx context.Context) error {
	snap, err := loadSnapshot(ctx, e.config, e.store, e.embedder, e.logger)
	if err != nil {
		return err
	}
	prev, err := e.retriever.Swap(snap)
	if err != nil {
		_ = snap.Close()
		return err
	}
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	var errs []error
	if snap := e.retriever.Snapshot(); snap != nil {
		errs = append(errs, snap.Close())
	}
	errs = append(errs, e.embedder.Close(), e.store.Close())
	return stderrors.Join(errs...)
}
