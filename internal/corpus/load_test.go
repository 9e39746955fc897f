package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc-labs/docsearch/internal/errors"
)

const sampleJSONL = `{"doc_id":"handbook","article_no":"12","page_start":3,"page_end":4,"text":"Vacation Policy","norm_text":"vacation policy","roles":["staff"]}
{"doc_id":"handbook","page_start":5,"page_end":5,"text":"Termination Notice","roles":["hr","manager"]}
`

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(sampleJSONL))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	first := c.Get(0)
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, "12", first.ArticleNo)
	assert.Equal(t, "vacation policy", first.NormText)
	assert.True(t, first.Roles.Contains("staff"))

	second := c.Get(1)
	assert.Equal(t, 1, second.ID, "IDs follow input order")
	assert.Equal(t, "termination notice", second.NormText, "missing norm_text is computed")
	assert.Equal(t, []string{"hr", "manager"}, second.Roles.Sorted())
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	input := "\n" + sampleJSONL + "\n"
	c, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestLoad_MalformedRecordFailsWholeLoad(t *testing.T) {
	input := sampleJSONL + "{not json}\n"
	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoad_RecordWithoutRolesFails(t *testing.T) {
	input := `{"doc_id":"handbook","page_start":1,"page_end":1,"text":"x"}` + "\n"
	_, err := Load(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty role set")
}

func TestLoad_Empty(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does/not/exist.jsonl")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusNotFound, errors.GetCode(err))
}
