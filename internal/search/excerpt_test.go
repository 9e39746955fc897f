package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcerpt_ShortTextReturnedWhole(t *testing.T) {
	out, start, end := excerpt("The notice period is thirty days.", []string{"notice"}, 500)

	assert.Equal(t, "The notice period is thirty days.", out)
	assert.Equal(t, "notice", out[start:end])
}

func TestExcerpt_LongestTokenWins(t *testing.T) {
	text := "A dog walked by. The termination clause follows."
	out, start, end := excerpt(text, []string{"a", "termination"}, 500)

	require.GreaterOrEqual(t, start, 0)
	assert.Equal(t, "termination", strings.ToLower(out[start:end]))
}

func TestExcerpt_CaseInsensitive(t *testing.T) {
	out, start, end := excerpt("VACATION policy applies.", []string{"vacation"}, 500)

	require.GreaterOrEqual(t, start, 0)
	assert.Equal(t, "VACATION", out[start:end])
}

func TestExcerpt_NoMatchReturnsLeadingText(t *testing.T) {
	text := strings.Repeat("word ", 200)
	out, start, end := excerpt(text, []string{"zeppelin"}, 50)

	assert.Equal(t, -1, start)
	assert.Equal(t, -1, end)
	assert.Equal(t, 50, utf8.RuneCountInString(out))
	assert.True(t, strings.HasPrefix(text, out))
}

func TestExcerpt_WindowCentersOnMatch(t *testing.T) {
	text := strings.Repeat("x ", 300) + "vacation" + strings.Repeat(" y", 300)
	out, start, end := excerpt(text, []string{"vacation"}, 100)

	require.GreaterOrEqual(t, start, 0)
	assert.Equal(t, "vacation", out[start:end])
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 100)
}

func TestExcerpt_EmptyInputs(t *testing.T) {
	out, start, end := excerpt("", []string{"x"}, 100)
	assert.Empty(t, out)
	assert.Equal(t, -1, start)
	assert.Equal(t, -1, end)

	out, start, end = excerpt("text", nil, 100)
	assert.Equal(t, "text", out)
	assert.Equal(t, -1, start)
	assert.Equal(t, -1, end)

	out, _, _ = excerpt("text", []string{"text"}, 0)
	assert.Empty(t, out)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 10))
}
