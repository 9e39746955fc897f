package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridoc-labs/docsearch/internal/corpus"
	"github.com/veridoc-labs/docsearch/internal/embed"
)

// buildBatchSize is the number of chunks embedded per request.
const buildBatchSize = 32

// BuildVectorIndex embeds every chunk's normalized text and constructs the
// HNSW index over the resulting vectors. The chunk ID is the graph key, so
// search results map straight back to corpus positions.
func BuildVectorIndex(ctx context.Context, c *corpus.Corpus, embedder embed.Embedder) (*HNSWIndex, error) {
	start := time.Now()

	chunks := c.All()
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cannot build vector index over empty corpus")
	}

	// Embed the first batch before creating the index so auto-detected
	// dimensions are known.
	var idx *HNSWIndex
	for offset := 0; offset < len(chunks); offset += buildBatchSize {
		end := offset + buildBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		texts := make([]string, len(batch))
		ids := make([]int, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.NormText
			ids[i] = chunk.ID
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", offset, end-1, err)
		}

		if idx == nil {
			idx, err = NewHNSWIndex(len(vectors[0]))
			if err != nil {
				return nil, err
			}
		}
		if err := idx.Add(ids, vectors); err != nil {
			return nil, err
		}
	}

	slog.Info("vector index built",
		slog.Int("chunks", len(chunks)),
		slog.Int("dimensions", idx.Dimensions()),
		slog.Duration("elapsed", time.Since(start)))
	return idx, nil
}
