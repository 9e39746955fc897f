package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veridoc-labs/docsearch/internal/corpus"
)

func accessChunk(id int, roles ...string) *corpus.Chunk {
	return &corpus.Chunk{ID: id, DocID: "handbook", Roles: corpus.NewRoleSet(roles...)}
}

func chunkIDs(chunks []*corpus.Chunk) []int {
	ids := make([]int, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

func TestFilterByRoles(t *testing.T) {
	chunks := []*corpus.Chunk{
		accessChunk(0, "staff"),
		accessChunk(1, "hr"),
		accessChunk(2, "staff", "hr"),
		accessChunk(3, "legal"),
	}

	tests := []struct {
		name   string
		caller corpus.RoleSet
		want   []int
	}{
		{"single role", corpus.NewRoleSet("staff"), []int{0, 2}},
		{"multiple roles", corpus.NewRoleSet("hr", "legal"), []int{1, 2, 3}},
		{"no visible chunks", corpus.NewRoleSet("intern"), []int{}},
		{"empty caller sees nothing", corpus.NewRoleSet(), []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkIDs(FilterByRoles(chunks, tt.caller)))
		})
	}
}

func TestFilterByRoles_PreservesOrder(t *testing.T) {
	// Input ordered by descending score upstream; the filter must keep that
	// relative order exactly.
	chunks := []*corpus.Chunk{
		accessChunk(5, "staff"),
		accessChunk(2, "hr"),
		accessChunk(9, "staff"),
		accessChunk(0, "staff"),
	}

	got := FilterByRoles(chunks, corpus.NewRoleSet("staff"))
	assert.Equal(t, []int{5, 9, 0}, chunkIDs(got))
}

func TestFilterByRoles_NeverExpandsHierarchy(t *testing.T) {
	chunks := []*corpus.Chunk{accessChunk(0, "staff")}

	// An admin caller without explicit staff membership sees nothing; the
	// caller expands hierarchies before searching.
	assert.Empty(t, FilterByRoles(chunks, corpus.NewRoleSet("admin")))
}
