package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "vacation policy")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "vacation policy")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same input must embed identically")
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedder_UnitNorm(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "termination notice period")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorNorm(vec), 1e-5)
}

func TestStaticEmbedder_EmptyText(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, vec, StaticDimensions)
	assert.Zero(t, vectorNorm(vec))
}

func TestStaticEmbedder_DistinctTextsDiffer(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "vacation policy")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "severance agreement")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStaticEmbedder_Batch(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	single, err := e.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[1])
}

func TestStaticEmbedder_Lifecycle(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	assert.True(t, e.Available(ctx))
	assert.Equal(t, "static-hash-v1", e.ModelName())
	assert.Equal(t, StaticDimensions, e.Dimensions())

	require.NoError(t, e.Close())
	assert.False(t, e.Available(ctx))
	_, err := e.Embed(ctx, "after close")
	require.Error(t, err)
}
