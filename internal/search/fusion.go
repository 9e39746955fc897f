package search

import (
	"strings"

	"github.com/veridoc-labs/docsearch/internal/corpus"
	"github.com/veridoc-labs/docsearch/internal/index"
)

// Fuser combines a dense lexical score vector and a sparse semantic
// candidate set into one fused score per chunk.
//
// Both inputs are normalized to [0,1] by dividing by their own maximum
// before blending. This makes the two heterogeneous scales (raw
// term-frequency statistic vs. cosine similarity) comparable without
// corpus-wide calibration; a vector whose maximum is 0 normalizes to all
// zeros, which is a valid "no evidence" state, not an error.
type Fuser struct {
	// Alpha is the semantic weight for this call (the retriever may force
	// it to 0 when the embedding capability is down, or override it for
	// lexical/semantic-only modes).
	Alpha float64

	// SemanticThreshold drops candidates below this similarity.
	SemanticThreshold float64

	// OverlapPenalty is subtracted when no query token occurs in a
	// chunk's normalized text.
	OverlapPenalty float64

	// ExactMatchBonus is added when the whole normalized query occurs
	// verbatim in a chunk's normalized text.
	ExactMatchBonus float64
}

// Fuse computes the fused score vector, index-aligned with the corpus.
//
// The output is a ranking key, not a probability: the penalty and bonus
// adjustments intentionally push values below 0 or above 1, and no clamping
// is applied.
func (f *Fuser) Fuse(
	bm25Raw []float64,
	candidates []index.Candidate,
	queryTokens []string,
	queryNorm string,
	chunks []*corpus.Chunk,
) []float64 {
	n := len(chunks)

	// Scatter the sparse candidate set into a dense vector. Chunks outside
	// the candidate set keep an implicit semantic score of 0.
	vecRaw := make([]float64, n)
	for _, cand := range candidates {
		if cand.ID < 0 || cand.ID >= n {
			continue
		}
		if cand.Similarity >= f.SemanticThreshold {
			vecRaw[cand.ID] = cand.Similarity
		}
	}

	bm25Norm := normalizeByMax(bm25Raw, n)
	vecNorm := normalizeByMax(vecRaw, n)

	fused := make([]float64, n)
	for i := 0; i < n; i++ {
		fused[i] = f.Alpha*vecNorm[i] + (1-f.Alpha)*bm25Norm[i]
	}

	// Precision adjustments. The overlap penalty suppresses chunks that
	// are semantically close but share no vocabulary with the query; the
	// exact-substring bonus keeps verbatim phrase lookups from being
	// out-ranked by diffuse semantic matches.
	for i, chunk := range chunks {
		if countTokenOverlap(queryTokens, chunk.NormText) == 0 {
			fused[i] -= f.OverlapPenalty
		}
		if queryNorm != "" && strings.Contains(chunk.NormText, queryNorm) {
			fused[i] += f.ExactMatchBonus
		}
	}

	return fused
}

// normalizeByMax scales a vector to [0,1] by its own maximum. A vector with
// no positive entry normalizes to all zeros. The result always has length n
// even when the input is short or nil, so degraded capability paths can
// pass a nil vector.
func normalizeByMax(scores []float64, n int) []float64 {
	out := make([]float64, n)
	max := 0.0
	for i := 0; i < n && i < len(scores); i++ {
		if scores[i] > max {
			max = scores[i]
		}
	}
	if max == 0 {
		return out
	}
	for i := 0; i < n && i < len(scores); i++ {
		out[i] = scores[i] / max
	}
	return out
}

// countTokenOverlap counts query tokens occurring as substrings of the
// chunk's normalized text.
func countTokenOverlap(tokens []string, normText string) int {
	count := 0
	for _, tok := range tokens {
		if tok != "" && strings.Contains(normText, tok) {
			count++
		}
	}
	return count
}
