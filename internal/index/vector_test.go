package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc-labs/docsearch/internal/errors"
)

func newTestHNSW(t *testing.T) *HNSWIndex {
	t.Helper()
	idx, err := NewHNSWIndex(3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(
		[]int{0, 1, 2},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	))
	return idx
}

func TestHNSWIndex_SearchFindsNearest(t *testing.T) {
	idx := newTestHNSW(t)
	defer func() { _ = idx.Close() }()

	candidates, err := idx.Search(context.Background(), []float32{0, 0.99, 0.01}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	assert.Equal(t, 1, candidates[0].ID)
	assert.InDelta(t, 1.0, candidates[0].Similarity, 1e-3)
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Similarity, -1.0)
		assert.LessOrEqual(t, c.Similarity, 1.0+1e-6)
	}
}

func TestHNSWIndex_DimensionMismatch(t *testing.T) {
	idx := newTestHNSW(t)
	defer func() { _ = idx.Close() }()

	_, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))

	err = idx.Add([]int{3}, [][]float32{{1, 0, 0, 0}})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}

func TestHNSWIndex_EmptyIndex(t *testing.T) {
	idx, err := NewHNSWIndex(3)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	candidates, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestHNSWIndex_SaveLoadRoundTrip(t *testing.T) {
	idx := newTestHNSW(t)
	defer func() { _ = idx.Close() }()

	path := filepath.Join(t.TempDir(), "vectors.hnsw")
	require.NoError(t, idx.Save(path, "static-hash-v1"))

	loaded, err := LoadHNSWIndex(path, 3, "static-hash-v1")
	require.NoError(t, err)
	defer func() { _ = loaded.Close() }()

	assert.Equal(t, 3, loaded.Dimensions())
	assert.Equal(t, 3, loaded.Count())

	candidates, err := loaded.Search(context.Background(), []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, 0, candidates[0].ID)
}

func TestLoadHNSWIndex_WrongDimensions(t *testing.T) {
	idx := newTestHNSW(t)
	defer func() { _ = idx.Close() }()

	path := filepath.Join(t.TempDir(), "vectors.hnsw")
	require.NoError(t, idx.Save(path, "static-hash-v1"))

	_, err := LoadHNSWIndex(path, 256, "other-model")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestLoadHNSWIndex_Missing(t *testing.T) {
	_, err := LoadHNSWIndex(filepath.Join(t.TempDir(), "absent.hnsw"), 0, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexCorrupt, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestLoadHNSWIndex_CorruptSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")
	require.NoError(t, os.WriteFile(path, []byte("not a graph"), 0o644))
	require.NoError(t, os.WriteFile(path+".meta", []byte("garbage"), 0o644))

	_, err := LoadHNSWIndex(path, 0, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexCorrupt, errors.GetCode(err))
}
