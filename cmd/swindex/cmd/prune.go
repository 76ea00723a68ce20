package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stale cache files",
		Long: `Delete cache files that have not been refreshed for so long that no
installed metadata can still reference them. Current section files are
left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd)
		},
	}

	return cmd
}

func runPrune(cmd *cobra.Command) error {
	p, err := buildPool(0)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	p.Prune()
	slog.Info("prune_complete")

	renderer(cmd.OutOrStdout()).Successf("✓ Stale cache files pruned")
	return nil
}
