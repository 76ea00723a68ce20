package cmd

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/swcatalog/swindex/internal/cache"
	"github.com/swcatalog/swindex/internal/pool"
	"github.com/swcatalog/swindex/internal/ui"
)

// poolFlags maps the load configuration onto pool flags.
func poolFlags() pool.Flags {
	var flags pool.Flags
	if cfg.Load.Catalog {
		flags |= pool.FlagLoadOSCatalog
	}
	if cfg.Load.Metainfo {
		flags |= pool.FlagLoadOSMetainfo
	}
	if cfg.Load.ResolveAddons {
		flags |= pool.FlagResolveAddons
	}
	if cfg.Load.PreferOSMetainfo {
		flags |= pool.FlagPreferOSMetainfo
	}
	if cfg.Load.Monitor {
		flags |= pool.FlagMonitor
	}
	return flags
}

// cacheRoots resolves the cache locations the pool should use. With --user
// both roots point at the per-user cache, keeping reads and writes in the
// user's home.
func cacheRoots() (systemRoot, userRoot string) {
	systemRoot = cfg.Cache.SystemRoot
	userRoot = cfg.Cache.UserRoot
	if userOnly {
		if userRoot == "" {
			userRoot = cache.DefaultUserRoot()
		}
		systemRoot = userRoot
	}
	return systemRoot, userRoot
}

// buildPool assembles a pool from the effective configuration. The pool
// starts empty; call Load to fill it.
func buildPool(extraFlags pool.Flags) (*pool.Pool, error) {
	opts := []pool.Option{
		pool.WithLocale(cfg.Locale),
		pool.WithFlags(poolFlags() | extraFlags),
	}
	if sysRoot, usrRoot := cacheRoots(); sysRoot != "" || usrRoot != "" {
		opts = append(opts, pool.WithCacheLocations(sysRoot, usrRoot))
	}
	if len(cfg.Data.Prefixes) > 0 {
		opts = append(opts, pool.WithDataPrefixes(cfg.Data.Prefixes...))
	}
	return pool.New(opts...)
}

// openPool builds the pool and fills it from the configured metadata
// locations, serving current sections straight from the cache. A partial
// load prints a warning and keeps what did load; any other load failure is
// fatal.
func openPool(cmd *cobra.Command) (*pool.Pool, error) {
	p, err := buildPool(0)
	if err != nil {
		return nil, err
	}
	if err := p.Load(cmd.Context()); err != nil {
		if !errors.Is(err, pool.ErrIncomplete) {
			_ = p.Close()
			return nil, err
		}
		slog.Warn("metadata_partially_loaded", slog.Any("error", err))
		renderer(cmd.ErrOrStderr()).Warningf("Warning: %v", err)
	}
	return p, nil
}

// renderer creates a Renderer honoring --no-color and the NO_COLOR
// convention.
func renderer(out io.Writer) *ui.Renderer {
	return ui.NewRenderer(out, noColor || ui.DetectNoColor())
}
