package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc-labs/docsearch/internal/corpus"
)

func testCorpus(t *testing.T, texts ...string) *corpus.Corpus {
	t.Helper()
	chunks := make([]*corpus.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &corpus.Chunk{
			ID:        i,
			DocID:     "handbook",
			PageStart: i + 1,
			PageEnd:   i + 1,
			Text:      text,
			Roles:     corpus.NewRoleSet("staff"),
		}
	}
	c, err := corpus.New(chunks)
	require.NoError(t, err)
	return c
}

func TestBleveLexicalIndex_Score(t *testing.T) {
	c := testCorpus(t,
		"employees accrue vacation days monthly",
		"the termination notice period is thirty days",
		"office dogs must be registered with reception",
	)
	idx, err := NewBleveLexicalIndex(c)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	scores, err := idx.Score(context.Background(), []string{"vacation"})
	require.NoError(t, err)
	require.Len(t, scores, 3, "dense vector covers the whole corpus")

	assert.Greater(t, scores[0], 0.0, "matching chunk scores positive")
	assert.Zero(t, scores[2], "non-matching chunk scores zero")
	assert.Greater(t, scores[0], scores[2])
}

func TestBleveLexicalIndex_MultiTokenDisjunction(t *testing.T) {
	c := testCorpus(t,
		"vacation days accrue monthly",
		"notice period for termination",
	)
	idx, err := NewBleveLexicalIndex(c)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	scores, err := idx.Score(context.Background(), []string{"vacation", "termination"})
	require.NoError(t, err)

	assert.Greater(t, scores[0], 0.0)
	assert.Greater(t, scores[1], 0.0, "any matching token contributes")
}

func TestBleveLexicalIndex_EmptyTokens(t *testing.T) {
	c := testCorpus(t, "some text", "more text")
	idx, err := NewBleveLexicalIndex(c)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	scores, err := idx.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestBleveLexicalIndex_NoMatches(t *testing.T) {
	c := testCorpus(t, "vacation policy", "notice period")
	idx, err := NewBleveLexicalIndex(c)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	scores, err := idx.Score(context.Background(), []string{"zeppelin"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}
