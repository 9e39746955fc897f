package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridoc-labs/docsearch/internal/corpus"
	"github.com/veridoc-labs/docsearch/internal/embed"
	"github.com/veridoc-labs/docsearch/internal/errors"
	"github.com/veridoc-labs/docsearch/internal/index"
	"github.com/veridoc-labs/docsearch/internal/normalize"
)

// fallbackScore is the fixed score attached to literal-substring fallback
// results. Fallback hits are not comparable with fused scores and are never
// mixed into a fused ranking.
const fallbackScore = 1.0

// Snapshot bundles a corpus with the indices built over it. A snapshot is
// immutable after construction; reload builds a fresh one and swaps the
// pointer, so in-flight requests keep ranking against a consistent view.
type Snapshot struct {
	Corpus  *corpus.Corpus
	Lexical index.LexicalIndex
	Vector  index.VectorIndex
}

// Close releases the snapshot's index resources.
func (s *Snapshot) Close() error {
	var errs []error
	if s.Lexical != nil {
		errs = append(errs, s.Lexical.Close())
	}
	if s.Vector != nil {
		errs = append(errs, s.Vector.Close())
	}
	return stderrors.Join(errs...)
}

// Retriever answers search requests against the current snapshot. It owns
// the request pipeline: validation, parallel capability calls under a
// deadline, fusion, ranking, access filtering, and the literal fallback.
//
// Safe for concurrent use. The snapshot pointer is swapped atomically on
// reload; the embedder and configuration are fixed for the retriever's
// lifetime.
type Retriever struct {
	snap     atomic.Pointer[Snapshot]
	embedder embed.Embedder
	config   Config
	logger   *slog.Logger
}

// NewRetriever creates a retriever over an initial snapshot. The embedder
// may be nil, in which case every request runs lexical-only.
func NewRetriever(snap *Snapshot, embedder embed.Embedder, cfg Config, logger *slog.Logger) (*Retriever, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retriever{
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}
	r.snap.Store(snap)
	return r, nil
}

func validateSnapshot(snap *Snapshot) error {
	if snap == nil || snap.Corpus == nil {
		return fmt.Errorf("snapshot must carry a corpus")
	}
	if snap.Lexical == nil {
		return fmt.Errorf("snapshot must carry a lexical index")
	}
	return nil
}

// Swap atomically replaces the current snapshot and returns the previous
// one so the caller can close it once in-flight requests drain.
func (r *Retriever) Swap(next *Snapshot) (*Snapshot, error) {
	if err := validateSnapshot(next); err != nil {
		return nil, err
	}
	prev := r.snap.Swap(next)
	r.logger.Info("snapshot swapped",
		slog.Int("chunks", next.Corpus.Len()),
		slog.Bool("vector_index", next.Vector != nil))
	return prev, nil
}

// Snapshot returns the snapshot currently serving requests.
func (r *Retriever) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Config returns the retriever's ranking configuration.
func (r *Retriever) Config() Config {
	return r.config
}

// Search runs one query for a caller holding the given roles and returns up
// to opts.K access-checked results in descending score order (ties broken
// by ascending chunk ID).
//
// Capability outages degrade rather than fail: an embedding or vector
// failure drops the semantic weight to zero, a lexical failure leaves the
// semantic signal alone, and when neither signal is available the literal
// substring fallback still runs. Only validation errors, fatal index errors,
// and deadline expiry fail the request.
func (r *Retriever) Search(ctx context.Context, query string, roles corpus.RoleSet, opts Options) ([]Result, error) {
	start := time.Now()

	if roles.Len() == 0 {
		return nil, errors.InvalidRequest("caller role set is empty")
	}
	if opts.K <= 0 {
		return nil, errors.InvalidRequest(fmt.Sprintf("result count must be positive, got %d", opts.K))
	}
	k := opts.K
	if r.config.MaxLimit > 0 && k > r.config.MaxLimit {
		k = r.config.MaxLimit
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	switch mode {
	case ModeHybrid, ModeLexical, ModeSemantic:
	default:
		return nil, errors.InvalidRequest(fmt.Sprintf("unknown search mode %q", mode))
	}

	snap := r.snap.Load()
	if snap.Corpus.Len() == 0 {
		return []Result{}, nil
	}

	qNorm := normalize.Normalize(query)
	tokens := normalize.Tokenize(qNorm)

	bm25Raw, candidates, lexFailed, semFailed, err := r.gatherSignals(ctx, snap, mode, qNorm, tokens)
	if err != nil {
		return nil, err
	}

	// No signal at all: skip fusion and go straight to the literal
	// fallback so outages still answer verbatim lookups.
	if lexFailed && semFailed {
		results := r.fallback(snap, query, roles, k)
		r.logResult(query, mode, len(results), true, start)
		return results, nil
	}

	effAlpha := r.config.Alpha
	switch mode {
	case ModeLexical:
		effAlpha = 0
	case ModeSemantic:
		effAlpha = 1
	}
	if semFailed {
		effAlpha = 0
	}

	fuser := &Fuser{
		Alpha:             effAlpha,
		SemanticThreshold: r.config.SemanticThreshold,
		OverlapPenalty:    r.config.OverlapPenalty,
		ExactMatchBonus:   r.config.ExactMatchBonus,
	}
	chunks := snap.Corpus.All()
	fused := fuser.Fuse(bm25Raw, candidates, tokens, qNorm, chunks)

	ranked := rankChunks(chunks, fused)
	visible := FilterByRoles(ranked, roles)

	results := make([]Result, 0, k)
	for _, chunk := range visible {
		score := fused[chunk.ID]
		if score < r.config.MinScore {
			// Ranked descending; everything after is below the cutoff too.
			break
		}
		ex, ms, me := excerpt(chunk.Text, tokens, r.config.ExcerptLength)
		results = append(results, Result{
			Chunk:      chunk,
			Score:      score,
			Excerpt:    ex,
			MatchStart: ms,
			MatchEnd:   me,
		})
		if len(results) == k {
			break
		}
	}

	if len(results) == 0 {
		results = r.fallback(snap, query, roles, k)
		r.logResult(query, mode, len(results), true, start)
		return results, nil
	}

	r.logResult(query, mode, len(results), false, start)
	return results, nil
}

// gatherSignals runs the lexical and semantic capability calls in parallel
// under the configured deadline. Non-fatal capability errors are absorbed
// into the lexFailed/semFailed flags; fatal errors and deadline expiry are
// returned.
func (r *Retriever) gatherSignals(
	ctx context.Context,
	snap *Snapshot,
	mode Mode,
	qNorm string,
	tokens []string,
) (bm25Raw []float64, candidates []index.Candidate, lexFailed, semFailed bool, err error) {
	semanticWanted := mode != ModeLexical && r.embedder != nil && snap.Vector != nil
	if !semanticWanted && mode != ModeLexical {
		// Not an outage, but the fused ranking must not weight a signal
		// that cannot exist.
		semFailed = true
	}

	capCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var lexErr, semErr error
	g, gctx := errgroup.WithContext(capCtx)

	g.Go(func() error {
		scores, scoreErr := snap.Lexical.Score(gctx, tokens)
		if scoreErr != nil {
			lexErr = scoreErr
			return nil
		}
		bm25Raw = scores
		return nil
	})

	if semanticWanted {
		g.Go(func() error {
			vec, embedErr := r.embedder.Embed(gctx, qNorm)
			if embedErr != nil {
				semErr = embedErr
				return nil
			}
			cands, searchErr := snap.Vector.Search(gctx, vec, r.config.SemanticTopK)
			if searchErr != nil {
				semErr = searchErr
				return nil
			}
			candidates = cands
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, nil, false, false, ctx.Err()
	}
	if stderrors.Is(capCtx.Err(), context.DeadlineExceeded) {
		return nil, nil, false, false, errors.Timeout(
			fmt.Sprintf("capability calls exceeded %s", r.config.Timeout), capCtx.Err())
	}

	if lexErr != nil {
		if errors.IsFatal(lexErr) {
			return nil, nil, false, false, lexErr
		}
		r.logger.Warn("lexical scoring failed, dropping lexical signal",
			slog.String("error", lexErr.Error()))
		lexFailed = true
		bm25Raw = nil
	}
	if semErr != nil {
		if errors.IsFatal(semErr) {
			return nil, nil, false, false, semErr
		}
		r.logger.Warn("semantic capability failed, degrading to lexical-only",
			slog.String("code", errors.ErrCodeCapabilityUnavailable),
			slog.String("error", semErr.Error()))
		semFailed = true
		candidates = nil
	}
	return bm25Raw, candidates, lexFailed, semFailed, nil
}

// rankChunks orders the corpus by fused score descending, chunk ID
// ascending. The tie-break makes rankings stable across runs and replicas.
func rankChunks(chunks []*corpus.Chunk, fused []float64) []*corpus.Chunk {
	ranked := make([]*corpus.Chunk, len(chunks))
	copy(ranked, chunks)
	sort.Slice(ranked, func(a, b int) bool {
		sa, sb := fused[ranked[a].ID], fused[ranked[b].ID]
		if sa != sb {
			return sa > sb
		}
		return ranked[a].ID < ranked[b].ID
	})
	return ranked
}

// fallback scans role-visible chunks in corpus order for the query as a
// literal substring of the normalized text. It answers verbatim lookups
// (article numbers, quoted phrases) that score too diffusely to survive the
// ranked path, and it is the only path left when both capabilities are down.
func (r *Retriever) fallback(snap *Snapshot, query string, roles corpus.RoleSet, k int) []Result {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Result{}
	}

	results := make([]Result, 0, k)
	for _, chunk := range snap.Corpus.All() {
		if !chunk.Roles.Intersects(roles) {
			continue
		}
		if !strings.Contains(chunk.NormText, needle) {
			continue
		}
		ex, ms, me := excerpt(chunk.Text, []string{needle}, r.config.ExcerptLength)
		results = append(results, Result{
			Chunk:      chunk,
			Score:      fallbackScore,
			Excerpt:    ex,
			MatchStart: ms,
			MatchEnd:   me,
			Fallback:   true,
		})
		if len(results) == k {
			break
		}
	}
	return results
}

func (r *Retriever) logResult(query string, mode Mode, count int, fallback bool, start time.Time) {
	r.logger.Debug("search completed",
		slog.String("mode", string(mode)),
		slog.Int("query_len", len(query)),
		slog.Int("results", count),
		slog.Bool("fallback", fallback),
		slog.Duration("duration", time.Since(start)))
}
