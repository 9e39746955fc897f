package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/veridoc-labs/docsearch/internal/errors"
)

// chunkRecord is the on-disk JSONL form of a chunk, as produced by the
// ingestion pipeline. IDs are assigned by line position at load time.
type chunkRecord struct {
	DocID     string   `json:"doc_id"`
	ArticleNo string   `json:"article_no"`
	PageStart int      `json:"page_start"`
	PageEnd   int      `json:"page_end"`
	Text      string   `json:"text"`
	NormText  string   `json:"norm_text"`
	Roles     []string `json:"roles"`
}

// maxLineBytes bounds a single JSONL record (1 MiB covers any page-range
// excerpt the chunker emits).
const maxLineBytes = 1 << 20

// LoadFile reads a JSONL corpus file and returns a validated Corpus.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorpusNotFound, fmt.Errorf("open corpus %s: %w", path, err))
	}
	defer func() { _ = f.Close() }()

	c, err := Load(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorpusInvalid, fmt.Errorf("load corpus %s: %w", path, err))
	}
	return c, nil
}

// Load reads JSONL chunk records from r, assigns dense IDs in input order,
// and returns a validated Corpus. A malformed record fails the whole load;
// a half-loaded corpus must never serve queries.
func Load(r io.Reader) (*Corpus, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var chunks []*Chunk
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec chunkRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		chunks = append(chunks, &Chunk{
			ID:        len(chunks),
			DocID:     rec.DocID,
			ArticleNo: rec.ArticleNo,
			PageStart: rec.PageStart,
			PageEnd:   rec.PageEnd,
			Text:      rec.Text,
			NormText:  rec.NormText,
			Roles:     NewRoleSet(rec.Roles...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}

	return New(chunks)
}
