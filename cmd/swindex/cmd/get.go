package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <component-id>",
		Short: "Show the components carrying an ID",
		Long: `Show every component carrying the given ID, one entry per origin.

The match is case-insensitive and includes components that provide the ID
as an alias.

Examples:
  swindex get org.example.Gimp
  swindex get org.example.Gimp --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runGet(cmd *cobra.Command, id, format string) error {
	p, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	cpts, err := p.ComponentsByID(id)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if len(cpts) == 0 {
		return fmt.Errorf("no component found for ID %q", id)
	}

	out := renderer(cmd.OutOrStdout())
	if format == "json" {
		return out.ComponentsJSON(cpts)
	}
	for i, cpt := range cpts {
		if i > 0 {
			out.Linef("")
		}
		out.ComponentDetail(cpt)
	}
	return nil
}
