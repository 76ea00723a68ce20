package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold_SplitsAndLowercases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "Photo Editor",
			want:  []string{"photo", "editor"},
		},
		{
			name:  "punctuation split",
			input: "org.example.PhotoEdit",
			want:  []string{"org", "example", "photoedit"},
		},
		{
			name:  "digits kept",
			input: "mp3 player",
			want:  []string{"mp3", "player"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fold(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFold_EmptyInput(t *testing.T) {
	assert.Empty(t, Fold(""))
	assert.Empty(t, Fold("  ..  "))
}

func TestFold_EmitsASCIIAlternates(t *testing.T) {
	// Given: a word with diacritics
	got := Fold("Café")

	// Then: the original token comes first, the folded alternate after it
	require.Len(t, got, 2)
	assert.Equal(t, "café", got[0])
	assert.Equal(t, "cafe", got[1])
}

func TestTokenValid(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"photo", true},
		{"mp3", true},
		{"x", true},
		{"", false},
		{"...", false},
		{"-", false},
		{"<b>", false},
		{"(lib)", false},
		{"日本語", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenValid(tt.token), "token %q", tt.token)
		})
	}
}

func TestStemmer_EnglishStemsPlurals(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "en_US.UTF-8"})

	assert.Equal(t, "en", st.Language())
	assert.Equal(t, "photo", st.Stem("photos"))
	assert.Equal(t, "edit", st.Stem("editing"))
}

func TestStemmer_ReloadSwitchesLanguage(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "C"})
	require.Equal(t, "en", st.Language(), "C locale should select English")

	st.Reload("de_DE.UTF-8")
	assert.Equal(t, "de", st.Language())
	assert.Equal(t, "lauf", st.Stem("laufen"))
}

func TestStemmer_UnsupportedLanguagePassesThrough(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "xx"})

	assert.Equal(t, "running", st.Stem("running"))
}

func TestStemmer_NilIsIdentity(t *testing.T) {
	var st *Stemmer

	assert.Equal(t, "running", st.Stem("running"))
	assert.Equal(t, "", st.Language())
}

func TestPrepareSearchTerms_StripsGreylist(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "en"})

	// Given: a query padded with an over-generic word
	terms := PrepareSearchTerms(st, "photo app")

	// Then: only the meaningful term remains, stemmed
	assert.Equal(t, []string{"photo"}, terms)
}

func TestPrepareSearchTerms_RestoresPureGreylistQuery(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "en"})

	// a query consisting only of greylist words is used verbatim
	terms := PrepareSearchTerms(st, "app")

	assert.Equal(t, []string{"app"}, terms)
}

func TestPrepareSearchTerms_FoldsAndStems(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "en"})

	terms := PrepareSearchTerms(st, "  Editing PHOTOS ")

	assert.Equal(t, []string{"edit", "photo"}, terms)
}

func TestPrepareSearchTerms_EmptyQuery(t *testing.T) {
	st := NewStemmer(StemmerConfig{Locale: "en"})

	assert.Nil(t, PrepareSearchTerms(st, ""))
	assert.Nil(t, PrepareSearchTerms(st, "   "))
}
