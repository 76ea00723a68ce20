package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/ui"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the software catalog interactively",
		Long: `Browse the software catalog in an interactive terminal UI.

Type / to filter, enter to open a component, esc to go back and q to
quit. Requires a terminal; pipe-friendly output comes from 'search' and
'get' instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd)
		},
	}

	return cmd
}

func runBrowse(cmd *cobra.Command) error {
	p, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	cpts, err := p.Components()
	if err != nil {
		return fmt.Errorf("listing components: %w", err)
	}
	if len(cpts) == 0 {
		return fmt.Errorf("the catalog is empty; run 'swindex refresh' first")
	}

	return ui.RunBrowser(cmd.OutOrStdout(), cpts, noColor)
}
