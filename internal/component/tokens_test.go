package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swcatalog/swindex/internal/tokenizer"
)

func newTestStemmer() *tokenizer.Stemmer {
	return tokenizer.NewStemmer(tokenizer.StemmerConfig{Locale: "en"})
}

func newSearchableComponent() *Component {
	c := New()
	c.ID = "org.example.PhotoEdit"
	c.SetName("", "PhotoEdit")
	c.SetSummary("", "photo edit")
	return c
}

func TestTokenCache_Deterministic(t *testing.T) {
	st := newTestStemmer()

	build := func() map[string]TokenMatch {
		c := New()
		c.ID = "org.example.PhotoEdit"
		c.Origin = "debian"
		c.PkgNames = []string{"photoedit"}
		c.SetName("", "PhotoEdit")
		c.SetSummary("", "Edit your photos")
		c.SetDescription("", "A fast editor for digital photographs.")
		c.SetKeywords("", []string{"graphics", "image"})
		c.AddProvidedItem(ProvidedKindMediatype, "image/png")
		return c.TokenCache(st)
	}

	first := build()
	second := build()

	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("token cache not deterministic (-first +second):\n%s", diff)
	}
}

func TestTokenCache_ShortTokenRules(t *testing.T) {
	c := New()
	c.ID = "org.example.Go"
	c.SetName("", "Go")
	c.SetDescription("", "go up and do it")

	tokens := c.TokenCache(nil)

	// Given: a two-letter name and a description full of short words

	// Then: the name token survives, the description short words do not
	require.Contains(t, tokens, "go")
	assert.NotZero(t, tokens["go"]&TokenMatchName)
	assert.Zero(t, tokens["go"]&TokenMatchDescription)
	assert.NotContains(t, tokens, "up")
	assert.NotContains(t, tokens, "it")
}

func TestTokenCache_HyphenSplitKeepsWholeToken(t *testing.T) {
	c := New()
	c.ID = "org.example.XPlane"
	c.SetName("", "X-Plane")

	tokens := c.TokenCache(nil)

	assert.Contains(t, tokens, "x-plane")
	assert.Contains(t, tokens, "plane")
	assert.Contains(t, tokens, "x")
}

func TestTokenCache_PlusNamesStayWhole(t *testing.T) {
	c := New()
	c.ID = "org.example.NotepadNext"
	c.SetName("", "Notepad++")

	tokens := c.TokenCache(nil)

	assert.Contains(t, tokens, "notepad++")
	assert.NotContains(t, tokens, "notepad")
}

func TestTokenCache_FieldMasksAccumulate(t *testing.T) {
	c := New()
	c.ID = "org.example.Paint"
	c.SetName("", "paint")
	c.SetSummary("", "paint pictures")

	tokens := c.TokenCache(nil)

	require.Contains(t, tokens, "paint")
	assert.Equal(t, TokenMatchName|TokenMatchSummary, tokens["paint"])
}

func TestTokenCache_StemsTokens(t *testing.T) {
	st := newTestStemmer()

	c := New()
	c.ID = "org.example.PhotoEdit"
	c.SetSummary("", "editing photos")

	tokens := c.TokenCache(st)

	assert.Contains(t, tokens, "edit")
	assert.Contains(t, tokens, "photo")
	assert.NotContains(t, tokens, "editing")
}

func TestTokenCache_MediatypesAndPkgNames(t *testing.T) {
	c := New()
	c.ID = "org.example.Viewer"
	c.Origin = "flathub"
	c.PkgNames = []string{"imageviewer"}
	c.AddProvidedItem(ProvidedKindMediatype, "image/svg+xml")

	tokens := c.TokenCache(nil)

	// mediatype values contain "+", they are indexed as-is
	require.Contains(t, tokens, "image/svg+xml")
	assert.NotZero(t, tokens["image/svg+xml"]&TokenMatchMediatype)
	require.Contains(t, tokens, "imageviewer")
	assert.NotZero(t, tokens["imageviewer"]&TokenMatchPkgName)
	require.Contains(t, tokens, "flathub")
	assert.NotZero(t, tokens["flathub"]&TokenMatchOrigin)
}

func TestTokenCache_AddonDonatesTokens(t *testing.T) {
	parent := New()
	parent.ID = "org.example.PhotoEdit"
	parent.SetName("", "PhotoEdit")

	addon := New()
	addon.ID = "org.example.PhotoEdit.Vignette"
	addon.Kind = KindAddon
	addon.SetName("", "Vignette Filter")
	parent.AddAddon(addon)

	tokens := parent.TokenCache(nil)

	// the addon's tokens land in the parent's index
	assert.Contains(t, tokens, "vignette")
	assert.Contains(t, tokens, "filter")
}

func TestSearchMatches_ExactOutranksPrefix(t *testing.T) {
	c := newSearchableComponent()

	exact := c.SearchMatches(nil, "photoedit")
	prefix := c.SearchMatches(nil, "photoe")

	// exact hits shift the field mask left by two
	assert.Equal(t, uint(TokenMatchName)<<2, exact)
	assert.Equal(t, uint(TokenMatchName), prefix)
	assert.Greater(t, exact, prefix)
}

func TestSearchMatches_NoHit(t *testing.T) {
	c := newSearchableComponent()

	assert.Zero(t, c.SearchMatches(nil, "spreadsheet"))
	assert.Zero(t, c.SearchMatches(nil, ""))
}

func TestSearchMatchesAll_AllTermsMustMatch(t *testing.T) {
	// Given: a component with "photo" and "edit" summary tokens
	c := newSearchableComponent()

	// When: both terms hit
	score := c.SearchMatchesAll(nil, []string{"photo", "edit"})

	// Then: the score is the OR of the per-term scores
	require.NotZero(t, score)
	assert.Equal(t, score, c.SortScore())

	// When: one term misses entirely
	miss := c.SearchMatchesAll(nil, []string{"photo", "video"})

	// Then: the whole query fails
	assert.Zero(t, miss)
	assert.Zero(t, c.SortScore())
}

func TestSearchMatchesAll_EmptyTermsMatchAll(t *testing.T) {
	c := newSearchableComponent()

	score := c.SearchMatchesAll(nil, nil)

	assert.Equal(t, uint(1), score)
	assert.Equal(t, uint(1), c.SortScore())
}

func TestSearchTokens_SortedAndComplete(t *testing.T) {
	c := newSearchableComponent()

	tokens := c.SearchTokens(nil)

	require.NotEmpty(t, tokens)
	assert.IsIncreasing(t, tokens)
	assert.Contains(t, tokens, "photo")
	assert.Contains(t, tokens, "edit")
}
