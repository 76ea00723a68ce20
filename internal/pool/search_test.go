package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swcatalog/swindex/internal/metadata"
)

// newSearchPool loads a small catalog to search against.
func newSearchPool(t *testing.T) *Pool {
	t.Helper()
	dir := t.TempDir()
	writeCatalogXML(t, dir, "repo.xml", "fedora-42",
		appComponent("org.example.Shutter", "Shutter", "Capture screenshots of any window"),
		appComponent("org.example.CamTool", "CamTool", "Control the shutter of tethered cameras"),
		appComponent("org.example.PhotoFlow", "PhotoFlow", "Edit and organize photo collections"),
		appComponent("org.example.VideoCut", "VideoCut", "Trim video clips"))
	p := newTestPool(t)
	p.AddExtraDataLocation(dir, metadata.StyleCatalog)
	require.NoError(t, p.Load(context.Background()))
	return p
}

func TestBuildSearchTokens_StemsAndDedups(t *testing.T) {
	p := newTestPool(t)

	// Given a search repeating a word and using an inflected form
	terms := p.BuildSearchTokens("Photo photo editing")

	// Then terms come out folded, stemmed and unique
	assert.Equal(t, []string{"photo", "edit"}, terms)
}

func TestBuildSearchTokens_BlankIsEmpty(t *testing.T) {
	p := newTestPool(t)

	assert.Empty(t, p.BuildSearchTokens(""))
	assert.Empty(t, p.BuildSearchTokens("   "))
}

func TestSearch_NameMatchOutranksSummaryMatch(t *testing.T) {
	// Given components where one matches a term in its name and another
	// only in its summary
	p := newSearchPool(t)

	// When searching for that term
	res, err := p.Search(context.Background(), "shutter")
	require.NoError(t, err)

	// Then both match and the name hit ranks first
	require.Len(t, res, 2)
	assert.Equal(t, "org.example.Shutter", res[0].ID)
	assert.Equal(t, "org.example.CamTool", res[1].ID)
	assert.Greater(t, res[0].SortScore(), res[1].SortScore())
}

func TestSearch_AllTermsMustMatch(t *testing.T) {
	p := newSearchPool(t)

	// When searching with two terms
	res, err := p.Search(context.Background(), "photo edit")
	require.NoError(t, err)

	// Then only the component matching both remains
	require.Len(t, res, 1)
	assert.Equal(t, "org.example.PhotoFlow", res[0].ID)
}

func TestSearch_BlankMatchesEverything(t *testing.T) {
	p := newSearchPool(t)

	// A search with no usable terms falls back to the full pool rather
	// than returning nothing.
	res, err := p.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, res, 4)
}

func TestSearch_NoMatchIsEmptyNotError(t *testing.T) {
	p := newSearchPool(t)

	res, err := p.Search(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearch_RepeatServesSameResults(t *testing.T) {
	p := newSearchPool(t)

	// When the same search runs twice
	first, err := p.Search(context.Background(), "shutter")
	require.NoError(t, err)
	second, err := p.Search(context.Background(), "shutter")
	require.NoError(t, err)

	// Then the repeat comes from the result cache as the identical slice
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Same(t, first[0], second[0])
	assert.Same(t, first[1], second[1])
}

func TestSearch_MaskInvalidatesCachedResults(t *testing.T) {
	// Given a search already sitting in the result cache
	p := newSearchPool(t)
	res, err := p.Search(context.Background(), "photo")
	require.NoError(t, err)
	require.Len(t, res, 1)

	// When the matching component is masked
	p.MaskByDataID(res[0].DataID())

	// Then the repeated search does not serve the stale cached slice
	res, err = p.Search(context.Background(), "photo")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearch_CanceledContext(t *testing.T) {
	p := newSearchPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, "shutter")
	assert.ErrorIs(t, err, context.Canceled)
}
