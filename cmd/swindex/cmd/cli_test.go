package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swcatalog/swindex/internal/cache"
	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/ui"
)

// cliFixture is one hermetic CLI environment: throwaway cache roots, a
// data prefix holding catalog fixtures, and a config file naming them.
type cliFixture struct {
	configPath string
	systemRoot string
	userRoot   string
	prefix     string
}

func newCLIFixture(t *testing.T, cpts ...*component.Component) cliFixture {
	t.Helper()

	base := t.TempDir()
	fx := cliFixture{
		configPath: filepath.Join(base, "config.yaml"),
		systemRoot: filepath.Join(base, "cache-system"),
		userRoot:   filepath.Join(base, "cache-user"),
		prefix:     filepath.Join(base, "share"),
	}

	// Keep config discovery, log files and color detection away from the
	// developer's real environment.
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "xdg-config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "xdg-state"))
	t.Setenv("NO_COLOR", "1")

	if len(cpts) > 0 {
		writeCatalogXML(t, filepath.Join(fx.prefix, "swcatalog", "xml"), "test-repo.xml", "test-repo", cpts...)
	}

	cfgYAML := fmt.Sprintf(`locale: C
cache:
  system_root: %s
  user_root: %s
data:
  prefixes:
    - %s
logging:
  level: warn
  file: %s
`, fx.systemRoot, fx.userRoot, fx.prefix, filepath.Join(base, "swindex.log"))
	require.NoError(t, os.WriteFile(fx.configPath, []byte(cfgYAML), 0o644))
	return fx
}

// runCLI executes the root command against the fixture config and returns
// what it wrote to stdout.
func runCLI(t *testing.T, fx cliFixture, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"--config", fx.configPath}, args...))

	err := cmd.Execute()
	if errBuf.Len() > 0 {
		t.Logf("stderr: %s", errBuf.String())
	}
	return outBuf.String(), err
}

func writeCatalogXML(t *testing.T, dir, name, origin string, cpts ...*component.Component) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, metadata.WriteComponentsXML(f, cpts, origin))
}

func photoFlow() *component.Component {
	cpt := component.New()
	cpt.ID = "org.example.PhotoFlow"
	cpt.Kind = component.KindDesktopApp
	cpt.PkgNames = []string{"photoflow"}
	cpt.Categories = []string{"Graphics"}
	cpt.SetName("C", "PhotoFlow")
	cpt.SetSummary("C", "Non-destructive photo editing")
	cpt.SetKeywords("C", []string{"imaging"})
	cpt.AddProvidedItem(component.ProvidedKindMediatype, "image/x-pfraw")
	return cpt
}

func shutter() *component.Component {
	cpt := component.New()
	cpt.ID = "org.example.Shutter"
	cpt.Kind = component.KindDesktopApp
	cpt.SetName("C", "Shutter")
	cpt.SetSummary("C", "Capture window screenshots")
	cpt.SetKeywords("C", []string{"imaging"})
	return cpt
}

func TestRefreshCmd_BuildsCache(t *testing.T) {
	// Given: a config pointing at one catalog with two applications
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: running refresh
	output, err := runCLI(t, fx, "refresh")

	// Then: it reports the ingested components and writes a section file
	require.NoError(t, err)
	assert.Contains(t, output, "Cache refreshed")
	assert.Contains(t, output, "2 components in 1 sections")

	sections, err := filepath.Glob(filepath.Join(fx.systemRoot, "os", "*"+cache.SectionExt))
	require.NoError(t, err)
	assert.NotEmpty(t, sections, "Refresh should persist a section file under the system root")
}

func TestRefreshCmd_SecondRunServedFromCache(t *testing.T) {
	// Given: an already refreshed cache
	fx := newCLIFixture(t, photoFlow(), shutter())
	_, err := runCLI(t, fx, "refresh")
	require.NoError(t, err)

	// When: refreshing again, with and without --force
	output, err := runCLI(t, fx, "refresh")
	require.NoError(t, err)
	assert.Contains(t, output, "2 components in 1 sections")

	output, err = runCLI(t, fx, "refresh", "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "2 components in 1 sections")
}

func TestSearchCmd_FindsComponents(t *testing.T) {
	// Given: a catalog with a photo editor and a screenshot tool
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: searching for a term only the editor carries
	output, err := runCLI(t, fx, "search", "photo")

	// Then: only the editor is listed
	require.NoError(t, err)
	assert.Contains(t, output, "Found 1 components for \"photo\"")
	assert.Contains(t, output, "PhotoFlow")
	assert.NotContains(t, output, "org.example.Shutter")
}

func TestSearchCmd_AllTermsMustMatch(t *testing.T) {
	fx := newCLIFixture(t, photoFlow(), shutter())

	// Both terms hit the editor's summary; neither pair matches the
	// screenshot tool.
	output, err := runCLI(t, fx, "search", "photo", "editing")

	require.NoError(t, err)
	assert.Contains(t, output, "Found 1 components")
	assert.Contains(t, output, "org.example.PhotoFlow")
}

func TestSearchCmd_NoResults(t *testing.T) {
	fx := newCLIFixture(t, photoFlow(), shutter())

	output, err := runCLI(t, fx, "search", "zebra")

	// No hits is an answer, not an error.
	require.NoError(t, err)
	assert.Contains(t, output, "No components found for \"zebra\"")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	// Given: a catalog with one matching component
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: searching with JSON output
	output, err := runCLI(t, fx, "search", "photo", "--format", "json")
	require.NoError(t, err)

	// Then: the output parses as a component array
	var results []struct {
		ID      string `json:"id"`
		Kind    string `json:"kind"`
		Name    string `json:"name"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "org.example.PhotoFlow", results[0].ID)
	assert.Equal(t, "desktop-application", results[0].Kind)
	assert.Equal(t, "PhotoFlow", results[0].Name)
}

func TestSearchCmd_LimitTruncates(t *testing.T) {
	// Given: two components sharing a keyword
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: searching with a limit below the match count
	output, err := runCLI(t, fx, "search", "imaging", "--limit", "1")

	// Then: the full count is reported but only one entry prints
	require.NoError(t, err)
	assert.Contains(t, output, "Found 2 components")
	assert.Contains(t, output, "Showing the first 1 results")
}

func TestGetCmd_ShowsDetail(t *testing.T) {
	// Given: a refreshed catalog
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: fetching one component by ID
	output, err := runCLI(t, fx, "get", "org.example.PhotoFlow")

	// Then: the detail view lists its fields
	require.NoError(t, err)
	assert.Contains(t, output, "PhotoFlow")
	assert.Contains(t, output, "Identifier: org.example.PhotoFlow")
	assert.Contains(t, output, "Kind: desktop-application")
	assert.Contains(t, output, "Origin: test-repo")
	assert.Contains(t, output, "Packages: photoflow")
}

func TestGetCmd_UnknownID(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	_, err := runCLI(t, fx, "get", "org.example.Missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no component found for ID")
}

func TestWhatProvidesCmd_FindsProvider(t *testing.T) {
	// Given: a component providing a media type
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: asking who provides it
	output, err := runCLI(t, fx, "what-provides", "mediatype", "image/x-pfraw")

	// Then: the provider is listed
	require.NoError(t, err)
	assert.Contains(t, output, "org.example.PhotoFlow")
}

func TestWhatProvidesCmd_NoMatches(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	output, err := runCLI(t, fx, "what-provides", "bin", "nosuchbinary")

	// An empty answer is not an error.
	require.NoError(t, err)
	assert.Contains(t, output, "No component provides bin nosuchbinary")
}

func TestWhatProvidesCmd_UnknownKind(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	_, err := runCLI(t, fx, "what-provides", "gadget", "whatever")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provided kind")
}

func TestStatusCmd_ReportsReadyCache(t *testing.T) {
	// Given: a catalog with two components
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: asking for status
	output, err := runCLI(t, fx, "status")

	// Then: the cache reports ready with its locations
	require.NoError(t, err)
	assert.Contains(t, output, "Cache Status")
	assert.Contains(t, output, "ready")
	assert.Contains(t, output, "Components: 2")
	assert.Contains(t, output, fx.systemRoot)
}

func TestStatusCmd_JSONOutput(t *testing.T) {
	fx := newCLIFixture(t, photoFlow(), shutter())

	output, err := runCLI(t, fx, "status", "--json")
	require.NoError(t, err)

	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, "C", info.Locale)
	assert.Equal(t, "ready", info.State)
	assert.Equal(t, 2, info.ComponentCount)
	assert.GreaterOrEqual(t, info.SectionCount, 1)
	assert.Equal(t, fx.systemRoot, info.SystemRoot)
	assert.NotEmpty(t, info.SystemSections, "Status should list the persisted section files")
}

func TestStatusCmd_EmptyCache(t *testing.T) {
	// Given: a config whose data prefix holds no metadata at all
	fx := newCLIFixture(t)

	// When: asking for status
	output, err := runCLI(t, fx, "status")

	// Then: the cache reports empty, not an error
	require.NoError(t, err)
	assert.Contains(t, output, "empty")
	assert.Contains(t, output, "Components: 0")
}

func TestMaskCmd_HidesMatches(t *testing.T) {
	// Given: two visible components
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: masking one of them by data ID pattern
	output, err := runCLI(t, fx, "mask", "system/*/test-repo/org.example.Shutter/*")

	// Then: one component disappears from the merged view
	require.NoError(t, err)
	assert.Contains(t, output, "Masked 1 components")
	assert.Contains(t, output, "1 components remain visible")
}

func TestMaskCmd_NoMatch(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	output, err := runCLI(t, fx, "mask", "user/*/nowhere/org.example.Zzz/*")

	require.NoError(t, err)
	assert.Contains(t, output, "No visible component matches")
}

func TestMaskCmd_MalformedPattern(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	_, err := runCLI(t, fx, "mask", "org.example.PhotoFlow")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed data ID")
}

func TestDumpCmd_WritesXML(t *testing.T) {
	// Given: a refreshed catalog
	fx := newCLIFixture(t, photoFlow(), shutter())

	// When: dumping one component
	output, err := runCLI(t, fx, "dump", "org.example.PhotoFlow")

	// Then: the output is catalog XML for that component
	require.NoError(t, err)
	assert.Contains(t, output, "<component")
	assert.Contains(t, output, "org.example.PhotoFlow")
	assert.Contains(t, output, "</component>")
}

func TestBrowseCmd_RequiresTTY(t *testing.T) {
	// Given: a populated catalog but a buffer instead of a terminal
	fx := newCLIFixture(t, photoFlow())

	// When: starting the browser
	_, err := runCLI(t, fx, "browse")

	// Then: it refuses to draw into the buffer
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TTY")
}

func TestPruneCmd_Succeeds(t *testing.T) {
	fx := newCLIFixture(t, photoFlow())

	output, err := runCLI(t, fx, "prune")

	require.NoError(t, err)
	assert.Contains(t, output, "Stale cache files pruned")
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	fx := newCLIFixture(t)

	output, err := runCLI(t, fx, "version")

	require.NoError(t, err)
	assert.Contains(t, output, "swindex")

	output, err = runCLI(t, fx, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, output)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	// Given: an explicit config path that does not exist
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	// When: running any subcommand with it
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", missing, "status"})

	err := cmd.Execute()

	// Then: the explicit path is an error, unlike the optional default
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
