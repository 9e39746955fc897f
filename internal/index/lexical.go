// Package index provides the two retrieval capabilities consumed by the
// search engine: dense lexical scoring over the whole corpus (Bleve) and
// sparse approximate nearest-neighbor search (HNSW).
package index

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/veridoc-labs/docsearch/internal/corpus"
)

// LexicalIndex scores a tokenized query against every chunk in the corpus.
type LexicalIndex interface {
	// Score returns one non-negative relevance score per corpus chunk, in
	// corpus order. An empty token list yields an all-zero vector, not an
	// error.
	Score(ctx context.Context, tokens []string) ([]float64, error)

	// Close releases index resources.
	Close() error
}

// lexicalField is the indexed field holding normalized chunk text.
const lexicalField = "norm_text"

// lexicalDoc is the document shape indexed per chunk.
type lexicalDoc struct {
	NormText string `json:"norm_text"`
}

// BleveLexicalIndex implements LexicalIndex with an in-memory Bleve index
// over chunk NormText. Documents are keyed by the decimal chunk ID, so hit
// scores scatter directly into the dense corpus-ordered vector.
type BleveLexicalIndex struct {
	index     bleve.Index
	corpusLen int
}

var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// NewBleveLexicalIndex builds the lexical index from the corpus. The index
// lives in memory; it is cheap to rebuild at load time and never persisted.
func NewBleveLexicalIndex(c *corpus.Corpus) (*BleveLexicalIndex, error) {
	mapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Store = false
	textField.IncludeTermVectors = false
	docMapping.AddFieldMappingsAt(lexicalField, textField)
	mapping.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}

	batch := idx.NewBatch()
	for _, chunk := range c.All() {
		if err := batch.Index(strconv.Itoa(chunk.ID), lexicalDoc{NormText: chunk.NormText}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index chunk %d: %w", chunk.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("commit lexical batch: %w", err)
	}

	return &BleveLexicalIndex{index: idx, corpusLen: c.Len()}, nil
}

// Score runs a disjunction of the query tokens and scatters hit scores into
// a dense vector indexed by chunk ID. Chunks with no matching token score 0.
func (b *BleveLexicalIndex) Score(ctx context.Context, tokens []string) ([]float64, error) {
	scores := make([]float64, b.corpusLen)
	if len(tokens) == 0 || b.corpusLen == 0 {
		return scores, nil
	}

	queries := make([]query.Query, 0, len(tokens))
	for _, tok := range tokens {
		mq := bleve.NewMatchQuery(tok)
		mq.SetField(lexicalField)
		queries = append(queries, mq)
	}
	disjunction := bleve.NewDisjunctionQuery(queries...)

	// Request every chunk so the dense vector is complete; the corpus is
	// the candidate set for the lexical signal, unlike the bounded
	// semantic one.
	req := bleve.NewSearchRequestOptions(disjunction, b.corpusLen, 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil || id < 0 || id >= b.corpusLen {
			return nil, fmt.Errorf("lexical index returned foreign doc id %q", hit.ID)
		}
		scores[id] = hit.Score
	}
	return scores, nil
}

// Close releases index resources.
func (b *BleveLexicalIndex) Close() error {
	return b.index.Close()
}
