package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/component"
)

func newMaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask <data-id>",
		Short: "Hide matching components and report what disappears",
		Long: `Hide every component matching the given data ID from the merged view,
then report how many entries disappeared. The mask lives in this
invocation only; it does not change the cache on disk.

A data ID has five slash-separated fields, and "*" fields match anything:
  scope/bundle-kind/origin/component-id/branch

Examples:
  swindex mask 'system/*/os/org.example.App/*'
  swindex mask '*/flatpak/*/org.example.App/*'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMask(cmd, args[0])
		},
	}

	return cmd
}

func runMask(cmd *cobra.Command, pattern string) error {
	if strings.Count(pattern, "/") != 4 {
		return fmt.Errorf("malformed data ID %q: want five slash-separated fields", pattern)
	}

	p, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	visible, err := p.Components()
	if err != nil {
		return fmt.Errorf("listing components: %w", err)
	}

	masked := 0
	for _, cpt := range visible {
		if component.DataIDMatches(cpt, pattern) {
			p.MaskByDataID(cpt.DataID())
			masked++
		}
	}
	slog.Info("mask_applied", slog.String("pattern", pattern), slog.Int("masked", masked))

	out := renderer(cmd.OutOrStdout())
	if masked == 0 {
		out.Dimf("No visible component matches %s.", pattern)
		return nil
	}

	remaining, err := p.Components()
	if err != nil {
		return fmt.Errorf("listing components: %w", err)
	}
	out.Successf("✓ Masked %d components matching %s", masked, pattern)
	out.Dimf("%d components remain visible.", len(remaining))
	return nil
}
