package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv removes all variables that influence Load so tests see only
// what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LC_ALL", "LC_MESSAGES", "LANG",
		"SWINDEX_LOCALE", "SWINDEX_SYSTEM_CACHE_ROOT", "SWINDEX_USER_CACHE_ROOT",
		"SWINDEX_DATA_PREFIXES", "SWINDEX_LOAD_CATALOG", "SWINDEX_LOAD_METAINFO",
		"SWINDEX_RESOLVE_ADDONS", "SWINDEX_PREFER_OS_METAINFO", "SWINDEX_MONITOR",
		"SWINDEX_MAX_RESULTS", "SWINDEX_LOG_LEVEL", "SWINDEX_LOG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "C", cfg.Locale)
	assert.Empty(t, cfg.Cache.SystemRoot, "empty system root means engine default")
	assert.Empty(t, cfg.Cache.UserRoot, "empty user root means engine default")
	assert.Empty(t, cfg.Data.Prefixes)

	assert.True(t, cfg.Load.Catalog)
	assert.True(t, cfg.Load.Metainfo)
	assert.True(t, cfg.Load.ResolveAddons)
	assert.False(t, cfg.Load.PreferOSMetainfo)
	assert.False(t, cfg.Load.Monitor)

	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
}

func TestDefaultLocale(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unset environment", nil, "C"},
		{"LANG with codeset", map[string]string{"LANG": "de_DE.UTF-8"}, "de_DE"},
		{"LANG with modifier", map[string]string{"LANG": "ca_ES@valencia"}, "ca_ES"},
		{"LC_ALL wins over LANG", map[string]string{"LANG": "fr_FR", "LC_ALL": "sv_SE.UTF-8"}, "sv_SE"},
		{"LC_MESSAGES wins over LANG", map[string]string{"LANG": "fr_FR", "LC_MESSAGES": "nl_NL"}, "nl_NL"},
		{"POSIX maps to C", map[string]string{"LANG": "POSIX"}, "C"},
		{"C stays C", map[string]string{"LC_ALL": "C.UTF-8"}, "C"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tc.want, DefaultLocale())
		})
	}
}

func TestUserConfigPath_HonorsXDGConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path := UserConfigPath()
	assert.Equal(t, filepath.Join(tmpDir, "swindex", "config.yaml"), path)
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	clearEnv(t)
	// Point the user config at an empty directory.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "C", cfg.Locale)
	assert.True(t, cfg.Load.Catalog)
}

func TestLoad_UserConfigFile_OverridesDefaults(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configContent := `
locale: de_DE
cache:
  system_root: /srv/swindex
load:
  catalog: false
  prefer_os_metainfo: true
search:
  max_results: 10
logging:
  level: debug
`
	configDir := filepath.Join(tmpDir, "swindex")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "de_DE", cfg.Locale)
	assert.Equal(t, "/srv/swindex", cfg.Cache.SystemRoot)
	assert.False(t, cfg.Load.Catalog, "explicit false in the file must win over the true default")
	assert.True(t, cfg.Load.Metainfo, "absent keys keep their defaults")
	assert.True(t, cfg.Load.PreferOSMetainfo)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ExplicitPath_MustExist(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
}

func TestLoad_ExplicitPath_WinsOverUserConfig(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	// User config says sv_SE, the explicit file says ja_JP.
	configDir := filepath.Join(tmpDir, "swindex")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("locale: sv_SE\n"), 0o644))

	explicit := filepath.Join(tmpDir, "override.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("locale: ja_JP\n"), 0o644))

	cfg, err := Load(explicit)

	require.NoError(t, err)
	assert.Equal(t, "ja_JP", cfg.Locale)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "swindex")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("locale: de_DE\nsearch:\n  max_results: 10\n"), 0o644))

	t.Setenv("SWINDEX_LOCALE", "pt_BR")
	t.Setenv("SWINDEX_MAX_RESULTS", "7")
	t.Setenv("SWINDEX_LOAD_CATALOG", "false")
	t.Setenv("SWINDEX_DATA_PREFIXES", "/opt/share,/usr/share")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "pt_BR", cfg.Locale)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.False(t, cfg.Load.Catalog)
	assert.Equal(t, []string{"/opt/share", "/usr/share"}, cfg.Data.Prefixes)
}

func TestLoad_ValidatesResult(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SWINDEX_LOG_LEVEL", "verbose")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty locale", func(c *Config) { c.Locale = "" }, "locale"},
		{"relative system root", func(c *Config) { c.Cache.SystemRoot = "cache" }, "system_root"},
		{"relative user root", func(c *Config) { c.Cache.UserRoot = "cache" }, "user_root"},
		{"relative data prefix", func(c *Config) { c.Data.Prefixes = []string{"share"} }, "prefixes"},
		{"negative max results", func(c *Config) { c.Search.MaxResults = -1 }, "max_results"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log level is case-insensitive", func(c *Config) { c.Logging.Level = "WARN" }, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			cfg := NewConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Locale = "fi_FI"
	cfg.Load.Monitor = true
	cfg.Search.MaxResults = 3
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fi_FI", loaded.Locale)
	assert.True(t, loaded.Load.Monitor)
	assert.Equal(t, 3, loaded.Search.MaxResults)
}
