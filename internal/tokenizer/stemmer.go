package tokenizer

import (
	"strings"
	"sync"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/danish"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"github.com/blevesearch/snowballstem/turkish"
)

// stemFuncs maps an ISO 639-1 language code to its Snowball routine.
// Languages without an entry are not stemmed.
var stemFuncs = map[string]func(env *snowballstem.Env) bool{
	"da": danish.Stem,
	"de": german.Stem,
	"en": english.Stem,
	"es": spanish.Stem,
	"fi": finnish.Stem,
	"fr": french.Stem,
	"hu": hungarian.Stem,
	"it": italian.Stem,
	"nl": dutch.Stem,
	"no": norwegian.Stem,
	"pt": portuguese.Stem,
	"ro": romanian.Stem,
	"ru": russian.Stem,
	"sv": swedish.Stem,
	"tr": turkish.Stem,
}

// StemmerConfig configures a Stemmer.
type StemmerConfig struct {
	// Locale is a POSIX locale tag or plain language code; only the
	// language part is used. Empty, "C" and "POSIX" select English.
	Locale string
}

// Stemmer reduces tokens to their language-specific stem. It is an explicit
// instance owned by its consumer rather than process-global state, and can be
// reloaded when the active locale changes. Safe for concurrent use.
type Stemmer struct {
	mu   sync.Mutex
	lang string
	stem func(env *snowballstem.Env) bool
}

// NewStemmer creates a stemmer for the configured locale.
func NewStemmer(cfg StemmerConfig) *Stemmer {
	s := &Stemmer{}
	s.Reload(cfg.Locale)
	return s
}

// Language returns the language code the stemmer currently operates in.
func (s *Stemmer) Language() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// Reload switches the stemmer to the language of the given locale.
func (s *Stemmer) Reload(locale string) {
	lang := LanguageFromLocale(locale)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
	s.stem = stemFuncs[lang]
}

// Stem returns the stem of a token. An empty result signals the token is not
// worth indexing. For languages without a stemming routine, and on a nil
// Stemmer, tokens pass through unchanged.
func (s *Stemmer) Stem(token string) string {
	if s == nil {
		return token
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stem == nil || token == "" {
		return token
	}
	env := snowballstem.NewEnv(token)
	s.stem(env)
	return env.Current()
}

// LanguageFromLocale extracts the lower-cased language part from a locale
// tag like "de_DE.UTF-8" or "pt-BR". The C and POSIX locales map to English.
func LanguageFromLocale(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "_.@-"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" || lang == "c" || lang == "posix" {
		return "en"
	}
	return lang
}
