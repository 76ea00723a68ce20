package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swcatalog/swindex/internal/component"
)

func TestSearch_AllTermsMustMatch(t *testing.T) {
	c := newTestCache(t)
	setSection(t, c, "os-catalog",
		appComponent("org.example.Gallery", "Gallery", "Edit photo collections"),
		appComponent("org.example.VideoCut", "VideoCut", "Trim video clips"))

	cpts, err := c.Search([]string{"photo", "edit"}, false)
	require.NoError(t, err)
	require.Len(t, cpts, 1)
	assert.Equal(t, "org.example.Gallery", cpts[0].ID)
	assert.Equal(t, uint(component.TokenMatchSummary), cpts[0].SortScore())

	// No single component carries both terms.
	cpts, err = c.Search([]string{"photo", "video"}, false)
	require.NoError(t, err)
	assert.Empty(t, cpts)
}

func TestSearch_PrefixMatch(t *testing.T) {
	c := newTestCache(t)
	setSection(t, c, "os-catalog",
		appComponent("org.example.Gallery", "Gallery", "Edit photo collections"))

	cpts, err := c.Search([]string{"phot"}, false)
	require.NoError(t, err)
	require.Len(t, cpts, 1)
	assert.Equal(t, "org.example.Gallery", cpts[0].ID)
}

func TestSearch_EmptyTerms(t *testing.T) {
	c := newTestCache(t)
	setSection(t, c, "os-catalog",
		appComponent("org.example.Gallery", "Gallery", "Edit photo collections"))

	cpts, err := c.Search(nil, true)
	require.NoError(t, err)
	assert.Empty(t, cpts)
}

func TestSearch_SortsByFieldWeight(t *testing.T) {
	c := newTestCache(t)
	setSection(t, c, "os-catalog",
		appComponent("org.example.LightMeter", "LightMeter", "Measure shutter speed"),
		appComponent("org.example.Shutter", "Shutter", "Capture window screenshots"))

	cpts, err := c.Search([]string{"shutter"}, true)
	require.NoError(t, err)
	require.Len(t, cpts, 2)
	// The name hit outweighs the summary hit.
	assert.Equal(t, "org.example.Shutter", cpts[0].ID)
	assert.Equal(t, uint(component.TokenMatchName), cpts[0].SortScore())
	assert.Equal(t, "org.example.LightMeter", cpts[1].ID)
	assert.Equal(t, uint(component.TokenMatchSummary), cpts[1].SortScore())
}

func TestSearch_MaskedComponentExcluded(t *testing.T) {
	c := newTestCache(t)
	gallery := appComponent("org.example.Gallery", "Gallery", "Edit photo collections")
	setSection(t, c, "os-catalog", gallery)

	c.MaskByDataID(gallery.DataID())

	cpts, err := c.Search([]string{"photo"}, false)
	require.NoError(t, err)
	assert.Empty(t, cpts)
}

func TestSearch_AddonTokensReachParent(t *testing.T) {
	c := newTestCache(t)
	parent := appComponent("org.example.PhotoFlow", "PhotoFlow", "Organize pictures")
	addon := addonComponent("org.example.PhotoFlow.Denoise", "org.example.PhotoFlow", "Grain removal")
	// Addons are linked before the section is built; their tokens index
	// the component they extend.
	parent.AddAddon(addon)
	setSection(t, c, "os-catalog", parent)

	cpts, err := c.Search([]string{"grain"}, false)
	require.NoError(t, err)
	require.Len(t, cpts, 1)
	assert.Equal(t, "org.example.PhotoFlow", cpts[0].ID)
}
