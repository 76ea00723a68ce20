// Package cmd provides the CLI commands for swindex.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/config"
	"github.com/swcatalog/swindex/internal/logging"
	"github.com/swcatalog/swindex/pkg/version"
)

// Persistent flags shared by every command.
var (
	configPath string
	localeFlag string
	logLevel   string
	noColor    bool
	userOnly   bool
)

// Effective configuration, resolved by the persistent pre-run hook.
var (
	cfg            *config.Config
	loggingCleanup func()
)

// NewRootCmd creates the root command for the swindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swindex",
		Short: "Query the software catalog of this system",
		Long: `Swindex indexes the software metadata available on this system
(catalog data shipped by repositories, metainfo files installed with
applications) into per-locale cache sections and answers queries against
the merged view.

Run 'swindex refresh' to build the cache, then query it with
'swindex search', 'swindex get' or 'swindex what-provides'.`,
		Version: version.Version,
	}

	// Set version template
	cmd.SetVersionTemplate("swindex version {{.Version}}\n")

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/swindex/config.yaml)")
	cmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "Locale to resolve metadata for (default from environment)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&userOnly, "user", false, "Operate on the per-user cache only")

	// Resolve configuration and route logging before any command runs
	cmd.PersistentPreRunE = setupConfigAndLogging
	cmd.PersistentPostRunE = teardownLogging

	// Add subcommands
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newWhatProvidesCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newPruneCmd())
	cmd.AddCommand(newMaskCmd())
	cmd.AddCommand(newDumpCmd())
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupConfigAndLogging resolves the effective configuration (file, then
// environment, then global flags) and points slog at the log file.
func setupConfigAndLogging(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if localeFlag != "" {
		loaded.Locale = localeFlag
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Queries stay usable without a log file.
		return nil
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// teardownLogging flushes and closes the log file.
func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
