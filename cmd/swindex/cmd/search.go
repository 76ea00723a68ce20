package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search the software catalog",
		Long: `Search the software catalog with stemmed keyword matching.

Every term must match: multi-term searches intersect. Results are ordered
by relevance, with identifier and name hits ranked above keyword and
summary hits.

Examples:
  swindex search photo editor
  swindex search "music player" --limit 5
  swindex search gimp --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses the configured cap)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	slog.Info("search_started", slog.String("query", query))

	p, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	results, err := p.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	total := len(results)
	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	slog.Info("search_complete",
		slog.String("query", query),
		slog.Int("results", total))

	out := renderer(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.ComponentsJSON(results)
	}

	if total == 0 {
		out.Dimf("No components found for %q.", query)
		return nil
	}
	out.Headerf("Found %d components for %q:", total, query)
	out.ComponentList(results)
	if len(results) < total {
		out.Dimf("Showing the first %d results; raise --limit for more.", len(results))
	}
	return nil
}
