package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veridoc-labs/docsearch/internal/corpus"
	"github.com/veridoc-labs/docsearch/internal/engine"
	"github.com/veridoc-labs/docsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	roles  []string
	limit  int
	mode   string // "hybrid", "lexical", "semantic"
	format string // "text", "json"
}

// searchResultJSON is the JSON output shape for one result.
type searchResultJSON struct {
	Rank       int      `json:"rank"`
	Score      float64  `json:"score"`
	DocID      string   `json:"doc_id"`
	ArticleNo  string   `json:"article_no,omitempty"`
	PageStart  int      `json:"page_start"`
	PageEnd    int      `json:"page_end"`
	Excerpt    string   `json:"excerpt"`
	MatchStart int      `json:"match_start"`
	MatchEnd   int      `json:"match_end"`
	Roles      []string `json:"roles"`
	Fallback   bool     `json:"fallback,omitempty"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed corpus",
		Long: `Search the indexed corpus with hybrid ranking.

Lexical (BM25) and semantic (embedding) scores are normalized and blended,
then results are filtered to chunks visible to the given roles.

Examples:
  docsearch search "vacation policy" --roles staff
  docsearch search "article 12" --roles staff,manager --limit 3
  docsearch search "notice period" --roles hr --mode lexical --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.roles, "roles", "r", nil, "Caller roles (repeatable or comma-separated)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = configured default)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "hybrid", "Ranking mode: hybrid, lexical, semantic")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("roles")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := engine.Open(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer func() { _ = eng.Close() }()

	retriever := eng.Retriever()
	limit := opts.limit
	if limit <= 0 {
		limit = retriever.Config().DefaultLimit
	}

	results, err := retriever.Search(ctx, query, corpus.NewRoleSet(opts.roles...), search.Options{
		K:    limit,
		Mode: search.Mode(opts.mode),
	})
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		return printJSON(cmd, results)
	case "text":
		printText(cmd, query, results)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}
}

func printJSON(cmd *cobra.Command, results []search.Result) error {
	out := make([]searchResultJSON, len(results))
	for i, res := range results {
		roles := make([]string, 0, res.Chunk.Roles.Len())
		for _, role := range res.Chunk.Roles.Sorted() {
			roles = append(roles, string(role))
		}
		out[i] = searchResultJSON{
			Rank:       i + 1,
			Score:      res.Score,
			DocID:      res.Chunk.DocID,
			ArticleNo:  res.Chunk.ArticleNo,
			PageStart:  res.Chunk.PageStart,
			PageEnd:    res.Chunk.PageEnd,
			Excerpt:    res.Excerpt,
			MatchStart: res.MatchStart,
			MatchEnd:   res.MatchEnd,
			Roles:      roles,
			Fallback:   res.Fallback,
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printText(cmd *cobra.Command, query string, results []search.Result) {
	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}
	for i, res := range results {
		marker := ""
		if res.Fallback {
			marker = " [literal match]"
		}
		fmt.Fprintf(w, "%d. %s", i+1, res.Chunk.DocID)
		if res.Chunk.ArticleNo != "" {
			fmt.Fprintf(w, " (art. %s)", res.Chunk.ArticleNo)
		}
		fmt.Fprintf(w, " p.%d-%d  score=%.3f%s\n", res.Chunk.PageStart, res.Chunk.PageEnd, res.Score, marker)
		fmt.Fprintf(w, "   %s\n", strings.ReplaceAll(res.Excerpt, "\n", " "))
	}
}
