// Package tokenizer turns free-form component text into normalized search
// tokens and prepares user search strings for querying. Tokens are folded to
// lower case, split on punctuation and optionally reduced to their language
// stem, so that index build and query time agree on one vocabulary.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold strips combining marks after canonical decomposition, turning
// e.g. "café" into "cafe".
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold splits a free-form string into lower-cased search tokens. The result
// contains the tokens in input order, followed by ASCII-folded alternates for
// every token where folding changes the spelling. Splitting happens on any
// rune that is not a letter or digit.
func Fold(s string) []string {
	lowered := cases.Fold().String(s)
	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	var alternates []string
	for _, tok := range tokens {
		folded, _, err := transform.String(asciiFold, tok)
		if err != nil || folded == tok {
			continue
		}
		alternates = append(alternates, folded)
	}
	return append(tokens, alternates...)
}

// FoldCase lower-cases a string using full Unicode case folding.
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

// TokenValid reports whether a string is usable as a search token.
// Markup remnants and fragments without any letter or digit are noise.
func TokenValid(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "<>()") {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
