package search

import "github.com/veridoc-labs/docsearch/internal/corpus"

// FilterByRoles retains the chunks whose role set intersects the caller's.
// It is a pure set-intersection test: no partial grants, no hierarchy
// resolution (callers expand hierarchies, e.g. admin implies staff, before
// searching). The output is a subsequence of the input preserving relative
// order; the ranking produced upstream is never disturbed here.
func FilterByRoles(chunks []*corpus.Chunk, callerRoles corpus.RoleSet) []*corpus.Chunk {
	visible := make([]*corpus.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Roles.Intersects(callerRoles) {
			visible = append(visible, chunk)
		}
	}
	return visible
}
