package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/swcatalog/swindex/configs"
	"github.com/swcatalog/swindex/internal/config"
	"github.com/swcatalog/swindex/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/swindex/config.yaml)
  3. SWINDEX_* environment variables
  4. Command-line flags`,
		Example: `  # Create the user config from the commented template
  swindex config init

  # Show the effective configuration
  swindex config show

  # Print the user config file path
  swindex config path`,
		// Configuration management must keep working when the current
		// file is broken, so the usual config/logging hook is skipped.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Create the user configuration file from a commented template.

An existing file is left alone unless --force rewrites it: the rewrite
keeps your settings and fills in the current defaults for everything
else, which brings in options added since the file was created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rewrite an existing configuration file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := renderer(cmd.OutOrStdout())
	path := config.UserConfigPath()

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warningf("Configuration already exists at %s", path)
			out.Dimf("Use --force to rewrite it with the current defaults.")
			return nil
		}
		return rewriteConfig(out, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	out.Successf("✓ Configuration created: %s", path)
	out.Dimf("Edit it, then check the result with 'swindex config show'.")
	return nil
}

// rewriteConfig decodes the existing file over fresh defaults and writes
// the result back, preserving settings while materializing new options.
func rewriteConfig(out *ui.Renderer, path string) error {
	loaded := config.NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := loaded.WriteYAML(path); err != nil {
		return err
	}
	out.Successf("✓ Configuration rewritten: %s", path)
	out.Dimf("Your settings were kept; new options carry their defaults.")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		defaults   bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after merging defaults, the user
configuration file and SWINDEX_* environment variables. With
--defaults the built-in defaults print instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, defaults)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Show the built-in defaults instead")

	return cmd
}

func runConfigShow(cmd *cobra.Command, jsonOutput, defaults bool) error {
	shown := config.NewConfig()
	if !defaults {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		shown = loaded
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}

	data, err := yaml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.UserConfigPath())
			return err
		},
	}
}
