// Package config loads the swindex configuration. Values layer in order of
// increasing precedence: built-in defaults, the user configuration file,
// SWINDEX_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the complete swindex configuration.
type Config struct {
	// Locale is the locale metadata is indexed and resolved for.
	Locale string `yaml:"locale" json:"locale"`

	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Data    DataConfig    `yaml:"data" json:"data"`
	Load    LoadConfig    `yaml:"load" json:"load"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CacheConfig selects the cache roots. Empty values mean the built-in
// locations: /var/cache/swindex for the system root and the swindex
// subdirectory of the user cache directory for the user root.
type CacheConfig struct {
	SystemRoot string `yaml:"system_root" json:"system_root"`
	UserRoot   string `yaml:"user_root" json:"user_root"`
}

// DataConfig selects where OS metadata is discovered. Empty prefixes mean
// the built-in /usr/share and /usr/local/share.
type DataConfig struct {
	Prefixes []string `yaml:"prefixes" json:"prefixes"`
}

// LoadConfig selects which metadata sources a refresh ingests and how the
// merged view behaves.
type LoadConfig struct {
	// Catalog loads catalog metadata shipped by software repositories.
	Catalog bool `yaml:"catalog" json:"catalog"`
	// Metainfo loads metainfo files installed with applications.
	Metainfo bool `yaml:"metainfo" json:"metainfo"`
	// ResolveAddons attaches addons to the components they extend.
	ResolveAddons bool `yaml:"resolve_addons" json:"resolve_addons"`
	// PreferOSMetainfo lets metainfo data shadow catalog data with the
	// same component ID.
	PreferOSMetainfo bool `yaml:"prefer_os_metainfo" json:"prefer_os_metainfo"`
	// Monitor watches the metadata locations and refreshes in the
	// background when they change.
	Monitor bool `yaml:"monitor" json:"monitor"`
}

// SearchConfig tunes query behavior.
type SearchConfig struct {
	// MaxResults caps the number of entries a search prints. Zero means
	// unlimited.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// LoggingConfig configures the log file sink.
type LoggingConfig struct {
	// Level is the minimum level written (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// File overrides the log file path. Empty uses the default location.
	File string `yaml:"file" json:"file"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Locale: DefaultLocale(),
		Load: LoadConfig{
			Catalog:       true,
			Metainfo:      true,
			ResolveAddons: true,
		},
		Search: SearchConfig{
			MaxResults: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultLocale derives the locale from the environment the way gettext
// does: LC_ALL beats LC_MESSAGES beats LANG. Codeset and modifier suffixes
// are stripped; an unset environment means the untranslated C locale.
func DefaultLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if v == "" || v == "C" || v == "POSIX" {
			return "C"
		}
		return v
	}
	return "C"
}

// UserConfigPath returns the path of the user configuration file,
// following the XDG base directory layout:
//   - $XDG_CONFIG_HOME/swindex/config.yaml when XDG_CONFIG_HOME is set
//   - ~/.config/swindex/config.yaml otherwise
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "swindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "swindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "swindex", "config.yaml")
}

// Load builds the effective configuration. path names an explicit
// configuration file and must exist when given; an empty path reads the
// user configuration file if present and falls back to defaults otherwise.
// SWINDEX_* environment variables override both.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = UserConfigPath()
	}

	// Decoding into the default-initialized struct keeps defaults for
	// absent keys while letting explicit false values take effect.
	if err := cfg.loadYAML(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML decodes a configuration file over the receiver.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

// envOverrides mirrors the configurable fields as SWINDEX_* variables.
// Pointer fields distinguish "unset" from an explicit zero value, so
// SWINDEX_LOAD_CATALOG=false works.
type envOverrides struct {
	Locale           *string  `envconfig:"SWINDEX_LOCALE"`
	SystemCacheRoot  *string  `envconfig:"SWINDEX_SYSTEM_CACHE_ROOT"`
	UserCacheRoot    *string  `envconfig:"SWINDEX_USER_CACHE_ROOT"`
	DataPrefixes     []string `envconfig:"SWINDEX_DATA_PREFIXES"`
	LoadCatalog      *bool    `envconfig:"SWINDEX_LOAD_CATALOG"`
	LoadMetainfo     *bool    `envconfig:"SWINDEX_LOAD_METAINFO"`
	ResolveAddons    *bool    `envconfig:"SWINDEX_RESOLVE_ADDONS"`
	PreferOSMetainfo *bool    `envconfig:"SWINDEX_PREFER_OS_METAINFO"`
	Monitor          *bool    `envconfig:"SWINDEX_MONITOR"`
	MaxResults       *int     `envconfig:"SWINDEX_MAX_RESULTS"`
	LogLevel         *string  `envconfig:"SWINDEX_LOG_LEVEL"`
	LogFile          *string  `envconfig:"SWINDEX_LOG_FILE"`
}

// applyEnv overlays SWINDEX_* environment variables.
func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}

	if env.Locale != nil {
		c.Locale = *env.Locale
	}
	if env.SystemCacheRoot != nil {
		c.Cache.SystemRoot = *env.SystemCacheRoot
	}
	if env.UserCacheRoot != nil {
		c.Cache.UserRoot = *env.UserCacheRoot
	}
	if env.DataPrefixes != nil {
		c.Data.Prefixes = env.DataPrefixes
	}
	if env.LoadCatalog != nil {
		c.Load.Catalog = *env.LoadCatalog
	}
	if env.LoadMetainfo != nil {
		c.Load.Metainfo = *env.LoadMetainfo
	}
	if env.ResolveAddons != nil {
		c.Load.ResolveAddons = *env.ResolveAddons
	}
	if env.PreferOSMetainfo != nil {
		c.Load.PreferOSMetainfo = *env.PreferOSMetainfo
	}
	if env.Monitor != nil {
		c.Load.Monitor = *env.Monitor
	}
	if env.MaxResults != nil {
		c.Search.MaxResults = *env.MaxResults
	}
	if env.LogLevel != nil {
		c.Logging.Level = *env.LogLevel
	}
	if env.LogFile != nil {
		c.Logging.File = *env.LogFile
	}
	return nil
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Locale == "" {
		return fmt.Errorf("locale must not be empty")
	}

	if c.Cache.SystemRoot != "" && !filepath.IsAbs(c.Cache.SystemRoot) {
		return fmt.Errorf("cache.system_root must be an absolute path, got %s", c.Cache.SystemRoot)
	}
	if c.Cache.UserRoot != "" && !filepath.IsAbs(c.Cache.UserRoot) {
		return fmt.Errorf("cache.user_root must be an absolute path, got %s", c.Cache.UserRoot)
	}
	for _, p := range c.Data.Prefixes {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("data.prefixes entries must be absolute paths, got %s", p)
		}
	}

	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn' or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
