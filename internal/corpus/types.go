// Package corpus defines the immutable document corpus served by the
// retriever: chunks with page ranges, article labels, role tags, and
// precomputed normalized text.
package corpus

import (
	"sort"
	"strings"
)

// Role is an access tag attached to chunks and callers. It is an open string
// tag; role hierarchy expansion (e.g. admin implies legal+staff) is performed
// by the caller before a search, never inside the corpus or the filter.
type Role string

// RoleSet is a set of role tags with intersection semantics.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from role names. Empty names are dropped.
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		s[Role(r)] = struct{}{}
	}
	return s
}

// Contains reports whether the set holds the given role.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share at least one role.
// This is the entire access test: no partial grants, no hierarchy.
func (s RoleSet) Intersects(other RoleSet) bool {
	// Iterate the smaller set.
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for r := range small {
		if _, ok := large[r]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int { return len(s) }

// Sorted returns the role names in lexicographic order, for stable output.
func (s RoleSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return names
}

// Chunk is the unit of retrieval: an excerpt of a source document with its
// page range, optional article label, and access roles.
//
// ID doubles as the chunk's position in the corpus; every score vector in the
// search path is indexed by it. This is a documented invariant, not an
// incidental array coincidence: Corpus construction rejects chunks whose IDs
// are not dense and sequential from zero.
type Chunk struct {
	ID        int     `json:"id"`
	DocID     string  `json:"doc_id"`
	ArticleNo string  `json:"article_no,omitempty"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Text      string  `json:"text"`
	NormText  string  `json:"norm_text"`
	Roles     RoleSet `json:"-"`
}

// RoleNames returns the chunk's roles in stable order.
func (c *Chunk) RoleNames() []string { return c.Roles.Sorted() }
