package index

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/veridoc-labs/docsearch/internal/errors"
)

// Candidate is a vector search hit: a chunk ID with its cosine similarity
// to the query, in [-1, 1].
type Candidate struct {
	ID         int
	Similarity float64
}

// VectorIndex finds the chunks most similar to a query embedding. Only IDs
// in the returned candidate set may receive a nonzero semantic score; every
// other chunk implicitly scores 0, which bounds the semantic term to O(k).
type VectorIndex interface {
	// Search returns up to k candidates in similarity-descending order.
	Search(ctx context.Context, queryVec []float32, k int) ([]Candidate, error)

	// Dimensions returns the indexed vector dimension.
	Dimensions() int

	// Close releases index resources.
	Close() error
}

// HNSWIndex implements VectorIndex with a coder/hnsw graph keyed directly
// by chunk ID. Vectors are unit-normalized at insert so cosine distance is
// well-defined; similarity = 1 - distance.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[int]
	dims   int
	count  int
	closed bool
}

var _ VectorIndex = (*HNSWIndex)(nil)

// hnswSidecar carries the graph parameters the gob export does not.
type hnswSidecar struct {
	Dimensions int
	Count      int
	Model      string
}

// NewHNSWIndex creates an empty HNSW index for vectors of the given
// dimension.
func NewHNSWIndex(dims int) (*HNSWIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dims)
	}
	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 64
	graph.Ml = 0.25

	return &HNSWIndex{graph: graph, dims: dims}, nil
}

// Add inserts vectors keyed by chunk ID. IDs must be unique; the corpus is
// immutable after build so there is no update path.
func (h *HNSWIndex) Add(ids []int, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("vector index is closed")
	}

	for i, id := range ids {
		if len(vectors[i]) != h.dims {
			return errors.New(errors.ErrCodeDimensionMismatch,
				fmt.Sprintf("chunk %d: vector has %d dimensions, index expects %d", id, len(vectors[i]), h.dims), nil)
		}
		vec := make([]float32, h.dims)
		copy(vec, vectors[i])
		normalizeInPlace(vec)
		h.graph.Add(hnsw.MakeNode(id, vec))
		h.count++
	}
	return nil
}

// Search finds the k nearest chunks to the query vector.
func (h *HNSWIndex) Search(ctx context.Context, queryVec []float32, k int) ([]Candidate, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, fmt.Errorf("vector index is closed")
	}
	if len(queryVec) != h.dims {
		return nil, errors.New(errors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query vector has %d dimensions, index expects %d", len(queryVec), h.dims), nil)
	}
	if h.count == 0 || k <= 0 {
		return []Candidate{}, nil
	}

	normalized := make([]float32, h.dims)
	copy(normalized, queryVec)
	normalizeInPlace(normalized)

	nodes := h.graph.Search(normalized, k)

	candidates := make([]Candidate, 0, len(nodes))
	for _, node := range nodes {
		distance := h.graph.Distance(normalized, node.Value)
		candidates = append(candidates, Candidate{
			ID:         node.Key,
			Similarity: 1 - float64(distance),
		})
	}
	return candidates, nil
}

// Dimensions returns the indexed vector dimension.
func (h *HNSWIndex) Dimensions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dims
}

// Count returns the number of indexed vectors.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Save persists the graph and a sidecar metadata file atomically
// (temp file + rename).
func (h *HNSWIndex) Save(path, model string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("vector index is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := h.graph.Export(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return h.saveSidecar(path+".meta", model)
}

func (h *HNSWIndex) saveSidecar(path, model string) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create sidecar: %w", err)
	}
	meta := hnswSidecar{Dimensions: h.dims, Count: h.count, Model: model}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close sidecar: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// LoadHNSWIndex loads a persisted index and verifies it against the
// embedder dimension. A mismatch or unreadable file is fatal: serving
// against a wrong-dimension index would return undefined rankings.
func LoadHNSWIndex(path string, expectDims int, expectModel string) (*HNSWIndex, error) {
	metaF, err := os.Open(path + ".meta")
	if err != nil {
		return nil, errors.IndexCorrupt("vector index sidecar unreadable", err)
	}
	var meta hnswSidecar
	decodeErr := gob.NewDecoder(metaF).Decode(&meta)
	_ = metaF.Close()
	if decodeErr != nil {
		return nil, errors.IndexCorrupt("vector index sidecar corrupt", decodeErr)
	}

	if expectDims > 0 && meta.Dimensions != expectDims {
		return nil, errors.New(errors.ErrCodeDimensionMismatch,
			fmt.Sprintf("index built with %d dimensions (%s), embedder produces %d (%s); rebuild the index",
				meta.Dimensions, meta.Model, expectDims, expectModel), nil)
	}

	h, err := NewHNSWIndex(meta.Dimensions)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IndexCorrupt("vector index file unreadable", err)
	}
	defer func() { _ = f.Close() }()

	// coder/hnsw Import requires an io.ByteReader.
	if err := h.graph.Import(bufio.NewReader(f)); err != nil {
		return nil, errors.IndexCorrupt("vector index file corrupt", err)
	}
	h.count = meta.Count
	return h, nil
}

// Close releases resources.
func (h *HNSWIndex) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.graph = nil
	return nil
}

// normalizeInPlace normalizes a vector to unit length in place.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
