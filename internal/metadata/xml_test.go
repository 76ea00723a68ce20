package metadata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swcatalog/swindex/internal/component"
)

const catalogXML = `<?xml version="1.0" encoding="UTF-8"?>
<components version="1.0" origin="debian-bookworm-main">
  <component type="desktop-application">
    <id>org.example.PhotoFlow</id>
    <pkgname>photoflow</pkgname>
    <name>PhotoFlow</name>
    <name xml:lang="de">FotoFlow</name>
    <summary>Edit and organize photos</summary>
    <summary xml:lang="de">Fotos bearbeiten</summary>
    <description><p>A photo editor for everyone.</p><p>Supports RAW files.</p></description>
    <description xml:lang="de"><p>Ein Fotoeditor.</p></description>
    <keywords>
      <keyword>photography</keyword>
      <keyword>editor</keyword>
      <keyword xml:lang="de">fotografie</keyword>
    </keywords>
    <categories>
      <category>Graphics</category>
      <category>Photography</category>
    </categories>
    <provides>
      <mediatype>image/png</mediatype>
      <mimetype>image/jpeg</mimetype>
      <binary>photoflow</binary>
      <dbus type="system">org.example.PhotoFlow.Daemon</dbus>
      <dbus type="user">org.example.PhotoFlow</dbus>
      <firmware type="runtime">pfcam.bin</firmware>
    </provides>
    <launchable type="desktop-id">photoflow.desktop</launchable>
    <bundle type="flatpak">app/org.example.PhotoFlow/x86_64/stable</bundle>
    <custom>
      <value key="Icon::cached">photoflow_64.png</value>
    </custom>
  </component>
  <component type="addon" merge="append">
    <id>org.example.PhotoFlow.Denoise</id>
    <extends>org.example.PhotoFlow</extends>
    <name>Denoise Plugin</name>
  </component>
</components>`

func TestParseComponentsXML_Catalog(t *testing.T) {
	res, err := ParseComponentsXML(strings.NewReader(catalogXML))
	require.NoError(t, err)

	assert.Equal(t, "debian-bookworm-main", res.Origin)
	assert.Equal(t, "1.0", res.Version)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Components, 2)

	cpt := res.Components[0]
	assert.Equal(t, "org.example.PhotoFlow", cpt.ID)
	assert.Equal(t, component.KindDesktopApp, cpt.Kind)
	assert.Equal(t, component.MergeKindNone, cpt.MergeKind)
	assert.Equal(t, "debian-bookworm-main", cpt.Origin)
	assert.Equal(t, []string{"photoflow"}, cpt.PkgNames)

	assert.Equal(t, "PhotoFlow", cpt.Name())
	cpt.SetActiveLocale("de_DE")
	assert.Equal(t, "FotoFlow", cpt.Name())
	assert.Equal(t, "Fotos bearbeiten", cpt.Summary())
	assert.Equal(t, "Ein Fotoeditor.", cpt.Description())
	cpt.SetActiveLocale("C")
	assert.Equal(t, "A photo editor for everyone. Supports RAW files.", cpt.Description())

	assert.Equal(t, []string{"photography", "editor"}, cpt.Keywords())
	assert.Equal(t, []string{"Graphics", "Photography"}, cpt.Categories)

	media := cpt.ProvidedForKind(component.ProvidedKindMediatype)
	require.NotNil(t, media)
	assert.ElementsMatch(t, []string{"image/png", "image/jpeg"}, media.Items)

	sysBus := cpt.ProvidedForKind(component.ProvidedKindDBusSystem)
	require.NotNil(t, sysBus)
	assert.Equal(t, []string{"org.example.PhotoFlow.Daemon"}, sysBus.Items)
	userBus := cpt.ProvidedForKind(component.ProvidedKindDBusUser)
	require.NotNil(t, userBus)
	assert.Equal(t, []string{"org.example.PhotoFlow"}, userBus.Items)

	fw := cpt.ProvidedForKind(component.ProvidedKindFirmwareRuntime)
	require.NotNil(t, fw)
	assert.Equal(t, []string{"pfcam.bin"}, fw.Items)

	launch := cpt.LaunchableForKind(component.LaunchableKindDesktopID)
	require.NotNil(t, launch)
	assert.Equal(t, []string{"photoflow.desktop"}, launch.Entries)

	require.Len(t, cpt.Bundles, 1)
	assert.Equal(t, component.BundleKindFlatpak, cpt.Bundles[0].Kind)
	assert.Equal(t, "app/org.example.PhotoFlow/x86_64/stable", cpt.Bundles[0].ID)

	assert.Equal(t, "photoflow_64.png", cpt.CustomValue("Icon::cached"))

	addon := res.Components[1]
	assert.Equal(t, component.KindAddon, addon.Kind)
	assert.Equal(t, component.MergeKindAppend, addon.MergeKind)
	assert.Equal(t, []string{"org.example.PhotoFlow"}, addon.Extends)
}

func TestParseComponentsXML_SkipsRecordWithoutID(t *testing.T) {
	doc := `<components version="1.0" origin="test">
  <component type="generic"><id>org.example.One</id></component>
  <component type="generic"><name>Nameless</name></component>
  <component type="generic"><id>org.example.Two</id></component>
</components>`

	res, err := ParseComponentsXML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Components, 2)
	assert.Equal(t, "org.example.One", res.Components[0].ID)
	assert.Equal(t, "org.example.Two", res.Components[1].ID)
}

func TestParseComponentsXML_MetainfoDocument(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<component type="console-application">
  <id>org.example.imgconv</id>
  <name>imgconv</name>
  <summary>Convert images in bulk</summary>
  <description>
    <p>Converts between image formats.</p>
    <p xml:lang="de">Konvertiert zwischen Bildformaten.</p>
  </description>
</component>`

	res, err := ParseComponentsXML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, res.Components, 1)

	cpt := res.Components[0]
	assert.Equal(t, component.KindConsoleApp, cpt.Kind)
	assert.Equal(t, "", cpt.Origin)
	assert.Equal(t, "Converts between image formats.", cpt.Description())
	cpt.SetActiveLocale("de")
	assert.Equal(t, "Konvertiert zwischen Bildformaten.", cpt.Description())
}

func TestParseComponentsXML_SyntaxErrorFailsDocument(t *testing.T) {
	_, err := ParseComponentsXML(strings.NewReader("<components><component><id>x</id>"))
	assert.Error(t, err)
}

// componentView projects the codec-visible state of a component for
// comparison.
type componentView struct {
	ID           string
	Kind         string
	Merge        string
	PkgNames     []string
	Names        map[string]string
	Summaries    map[string]string
	Descriptions map[string]string
	Keywords     map[string][]string
	Categories   []string
	Provided     []component.Provided
	Launchables  []component.Launchable
	Bundles      []component.Bundle
	Extends      []string
	Custom       map[string]string
}

func viewOf(c *component.Component) componentView {
	return componentView{
		ID:           c.ID,
		Kind:         c.Kind.String(),
		Merge:        c.MergeKind.String(),
		PkgNames:     c.PkgNames,
		Names:        c.Names(),
		Summaries:    c.Summaries(),
		Descriptions: c.Descriptions(),
		Keywords:     c.KeywordTables(),
		Categories:   c.Categories,
		Provided:     c.Provided,
		Launchables:  c.Launchables,
		Bundles:      c.Bundles,
		Extends:      c.Extends,
		Custom:       c.Custom(),
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	res, err := ParseComponentsXML(strings.NewReader(catalogXML))
	require.NoError(t, err)
	require.Len(t, res.Components, 2)

	for _, orig := range res.Components {
		data, err := Serialize(orig)
		require.NoError(t, err)

		back, err := ParseData(data)
		require.NoError(t, err)

		// Origin lives on the catalog, not the payload.
		back.Origin = orig.Origin
		if diff := cmp.Diff(viewOf(orig), viewOf(back)); diff != "" {
			t.Errorf("round-trip mismatch for %s (-orig +back):\n%s", orig.ID, diff)
		}
	}
}

func TestSerialize_Deterministic(t *testing.T) {
	res, err := ParseComponentsXML(strings.NewReader(catalogXML))
	require.NoError(t, err)

	first, err := Serialize(res.Components[0])
	require.NoError(t, err)
	second, err := Serialize(res.Components[0])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerialize_EscapesMarkupText(t *testing.T) {
	cpt := component.New()
	cpt.ID = "org.example.Amp"
	cpt.Kind = component.KindGeneric
	cpt.SetDescription("", "Fast & simple <tool>")

	data, err := Serialize(cpt)
	require.NoError(t, err)

	back, err := ParseData(data)
	require.NoError(t, err)
	assert.Equal(t, "Fast & simple <tool>", back.Description())
}

func TestParseData_RejectsMissingID(t *testing.T) {
	_, err := ParseData([]byte(`<component type="generic"><name>x</name></component>`))
	assert.Error(t, err)
}

func TestWriteComponentsXML(t *testing.T) {
	res, err := ParseComponentsXML(strings.NewReader(catalogXML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteComponentsXML(&buf, res.Components, "debian-bookworm-main"))

	again, err := ParseComponentsXML(&buf)
	require.NoError(t, err)
	assert.Equal(t, "debian-bookworm-main", again.Origin)
	require.Len(t, again.Components, 2)
	assert.Equal(t, "org.example.PhotoFlow", again.Components[0].ID)
	assert.Equal(t, "org.example.PhotoFlow.Denoise", again.Components[1].ID)
}
