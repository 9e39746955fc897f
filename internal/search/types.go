// Package search implements hybrid retrieval over an immutable corpus:
// lexical and semantic signals are normalized and fused into one ranking,
// which is then filtered to the chunks the caller's roles may see.
package search

import (
	"time"

	"github.com/veridoc-labs/docsearch/internal/corpus"
)

// Mode selects how the two signals are blended for a single query.
type Mode string

const (
	// ModeHybrid blends lexical and semantic signals with the configured
	// alpha. Default.
	ModeHybrid Mode = "hybrid"

	// ModeLexical ranks by the lexical signal alone (alpha forced to 0).
	ModeLexical Mode = "lexical"

	// ModeSemantic ranks by the semantic signal alone (alpha forced to 1).
	ModeSemantic Mode = "semantic"
)

// Config holds the ranking parameters of the retriever.
//
// Alpha, the threshold, and the penalty/bonus magnitudes are deployment
// tuning knobs with no universal optimum; treat the defaults as a starting
// point, not a calibration.
type Config struct {
	// Alpha is the semantic weight in [0,1]; lexical weight is 1-Alpha.
	Alpha float64

	// SemanticThreshold drops vector candidates below this similarity
	// before fusion.
	SemanticThreshold float64

	// OverlapPenalty is subtracted from a chunk sharing no vocabulary
	// with the query. Suppresses semantically-close results with zero
	// lexical evidence, trading recall for topicality.
	OverlapPenalty float64

	// ExactMatchBonus is added when the whole normalized query appears
	// verbatim in a chunk's normalized text.
	ExactMatchBonus float64

	// MinScore drops ranked results scoring below it. Fallback results
	// are exempt.
	MinScore float64

	// SemanticTopK is the candidate count requested from the vector index.
	SemanticTopK int

	// DefaultLimit is the result count callers use when the request names
	// none. Search itself rejects non-positive K; the default is applied
	// at the edge, never silently inside.
	DefaultLimit int

	// MaxLimit caps the requested result count.
	MaxLimit int

	// Timeout bounds the capability calls (lexical scoring, embedding,
	// vector search) of one request. Fusion and ranking are pure
	// in-memory work and run outside the timeout.
	Timeout time.Duration

	// ExcerptLength bounds result excerpts, in runes.
	ExcerptLength int
}

// DefaultConfig returns the default ranking parameters.
func DefaultConfig() Config {
	return Config{
		Alpha:             0.4,
		SemanticThreshold: 0.0,
		OverlapPenalty:    0.2,
		ExactMatchBonus:   0.2,
		MinScore:          0.05,
		SemanticTopK:      50,
		DefaultLimit:      5,
		MaxLimit:          100,
		Timeout:           5 * time.Second,
		ExcerptLength:     500,
	}
}

// Options configures a single search call.
type Options struct {
	// K is the requested result count. Must be positive; callers that
	// want the default pass Config.DefaultLimit. Non-positive K is an
	// invalid request, not a silent default.
	K int

	// Mode overrides the signal blend for this call. Empty means hybrid.
	Mode Mode
}

// Result is one ranked, access-checked hit.
type Result struct {
	// Chunk references the matched corpus chunk (read-only).
	Chunk *corpus.Chunk

	// Score is the fused ranking key. It is not a calibrated probability:
	// the penalty and bonus adjustments may push it outside [0,1].
	// Fallback results carry a fixed score of 1.0.
	Score float64

	// Excerpt is a bounded window of the chunk text around the strongest
	// token match, or the leading text when nothing matched.
	Excerpt string

	// MatchStart/MatchEnd are byte offsets of the matched token within
	// Excerpt, for caller-side highlighting. Both are -1 when no token
	// matched.
	MatchStart int
	MatchEnd   int

	// Fallback marks results produced by the literal substring fallback
	// rather than fused ranking.
	Fallback bool
}
