package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/pool"
)

func newRefreshCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the metadata cache",
		Long: `Rebuild the metadata cache from the configured locations.

Directories whose cached section is already current are served from the
cache and skipped; --force reparses everything.

Examples:
  swindex refresh
  swindex refresh --force
  swindex refresh --user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reparse all metadata even when the cache is current")

	return cmd
}

func runRefresh(cmd *cobra.Command, force bool) error {
	var extra pool.Flags
	if force {
		extra = pool.FlagIgnoreCacheAge
	}

	p, err := buildPool(extra)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	out := renderer(cmd.OutOrStdout())
	start := time.Now()
	slog.Info("refresh_started", slog.Bool("force", force))

	err = p.Load(cmd.Context())
	switch {
	case err == nil:
	case errors.Is(err, pool.ErrIncomplete):
		out.Warningf("Some metadata could not be loaded: %v", err)
	case errors.Is(err, pool.ErrLoadBusy):
		return fmt.Errorf("another refresh is already running: %w", err)
	case errors.Is(err, pool.ErrTargetNotWritable):
		return fmt.Errorf("%w\nRetry with --user to refresh the per-user cache", err)
	default:
		return fmt.Errorf("refresh failed: %w", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	slog.Info("refresh_complete",
		slog.Int("components", p.ComponentCount()),
		slog.Int("sections", p.SectionCount()),
		slog.Duration("elapsed", elapsed))

	out.Successf("✓ Cache refreshed: %d components in %d sections (%s)",
		p.ComponentCount(), p.SectionCount(), elapsed)
	return nil
}
