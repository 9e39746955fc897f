package corpus

import (
	"fmt"

	"github.com/veridoc-labs/docsearch/internal/normalize"
)

// Corpus is an ordered, immutable collection of chunks. It is built once
// (at load or explicit reload) and shared read-only across all concurrent
// queries; no chunk is mutated after construction.
type Corpus struct {
	chunks []*Chunk
}

// New validates the chunks and builds a Corpus. It enforces the invariants
// the search path depends on:
//
//   - IDs are dense and sequential from 0 (chunk i has ID i),
//   - every chunk carries at least one role (public visibility is a role,
//     not an empty set),
//   - PageStart <= PageEnd,
//   - NormText is present; when missing it is computed from Text.
func New(chunks []*Chunk) (*Corpus, error) {
	for i, c := range chunks {
		if c == nil {
			return nil, fmt.Errorf("chunk %d: nil chunk", i)
		}
		if c.ID != i {
			return nil, fmt.Errorf("chunk %d: ID %d breaks dense ordering", i, c.ID)
		}
		if len(c.Roles) == 0 {
			return nil, fmt.Errorf("chunk %d (doc %s): empty role set", i, c.DocID)
		}
		if c.PageStart > c.PageEnd {
			return nil, fmt.Errorf("chunk %d (doc %s): page range %d-%d inverted", i, c.DocID, c.PageStart, c.PageEnd)
		}
		if c.NormText == "" {
			c.NormText = normalize.Normalize(c.Text)
		}
	}
	return &Corpus{chunks: chunks}, nil
}

// Len returns the number of chunks.
func (c *Corpus) Len() int { return len(c.chunks) }

// Get returns the chunk with the given ID, or nil if out of range.
func (c *Corpus) Get(id int) *Chunk {
	if id < 0 || id >= len(c.chunks) {
		return nil
	}
	return c.chunks[id]
}

// All returns the chunks in corpus order. Callers must treat the returned
// slice and its chunks as read-only.
func (c *Corpus) All() []*Chunk { return c.chunks }
