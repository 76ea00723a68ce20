package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/metadata"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <component-id>",
		Short: "Write a component's metadata as XML",
		Long: `Write the catalog XML for every component carrying the given ID to
standard output, exactly as the cache resolved it for the active locale.

Examples:
  swindex dump org.example.Gimp
  swindex dump org.example.Gimp --locale de`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args[0])
		},
	}

	return cmd
}

func runDump(cmd *cobra.Command, id string) error {
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

	out := cmd.OutOrStdout()
	for _, cpt := range cpts {
		data, err := metadata.Serialize(cpt)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", cpt.DataID(), err)
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}
