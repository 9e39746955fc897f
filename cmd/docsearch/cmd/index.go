package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc-labs/docsearch/internal/engine"
)

// timeRound trims elapsed times in CLI output to readable precision.
const timeRound = time.Millisecond

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Ingest the corpus and build indices",
		Long: `Ingest the JSONL corpus configured under paths.corpus: chunks are
validated, persisted to the chunk store, and embedded into the vector
index when the embedding provider is reachable.

When the provider is down the build still succeeds and searches run
lexical-only until the next build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			stats, err := engine.Build(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Indexed %d chunks in %s\n", stats.Chunks, stats.Elapsed.Round(timeRound))
			if stats.VectorIndexed {
				fmt.Fprintf(w, "Vector index: %d dimensions\n", stats.Dimensions)
			} else {
				fmt.Fprintln(w, "Vector index: skipped (embedder unavailable)")
			}
			return nil
		},
	}
	return cmd
}
