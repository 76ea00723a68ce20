package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/component"
)

func newWhatProvidesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "what-provides <kind> <item>",
		Short: "Find the components providing a system interface",
		Long: `Find the components providing an item of a system interface kind.

Kinds: lib, bin, mediatype, font, modalias, python, python2, dbus-system,
dbus-user, firmware-runtime, firmware-flashed, id.

Examples:
  swindex what-provides mediatype image/png
  swindex what-provides lib libfoo.so.2
  swindex what-provides bin gimp --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhatProvides(cmd, args[0], args[1], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runWhatProvides(cmd *cobra.Command, kindName, item, format string) error {
	kind := component.ProvidedKindFromString(kindName)
	if kind == component.ProvidedKindUnknown {
		return fmt.Errorf("unknown provided kind %q", kindName)
	}

	p, err := openPool(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	cpts, err := p.ComponentsByProvidedItem(kind, item)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	out := renderer(cmd.OutOrStdout())
	if format == "json" {
		return out.ComponentsJSON(cpts)
	}

	if len(cpts) == 0 {
		out.Dimf("No component provides %s %s.", kind, item)
		return nil
	}
	out.Headerf("Components providing %s %s:", kind, item)
	out.ComponentList(cpts)
	return nil
}
