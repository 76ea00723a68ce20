package component

import (
	"sort"
	"strings"

	"github.com/swcatalog/swindex/internal/tokenizer"
)

// TokenMatch flags the fields a search token occurred in. The values double
// as relevance weights: a hit in a higher-valued field ranks the component
// higher when search results are sorted.
type TokenMatch uint16

const (
	// TokenMatchNone matches no field.
	TokenMatchNone TokenMatch = 0
	// TokenMatchMediatype is a hit on a handled media type.
	TokenMatchMediatype TokenMatch = 1 << 0
	// TokenMatchPkgName is a hit on a package name.
	TokenMatchPkgName TokenMatch = 1 << 1
	// TokenMatchOrigin is a hit on the data origin.
	TokenMatchOrigin TokenMatch = 1 << 2
	// TokenMatchDescription is a hit in the long description.
	TokenMatchDescription TokenMatch = 1 << 3
	// TokenMatchSummary is a hit in the one-line summary.
	TokenMatchSummary TokenMatch = 1 << 4
	// TokenMatchKeyword is a hit on a keyword.
	TokenMatchKeyword TokenMatch = 1 << 5
	// TokenMatchName is a hit in the display name.
	TokenMatchName TokenMatch = 1 << 6
	// TokenMatchID is a hit on the component ID.
	TokenMatchID TokenMatch = 1 << 7
)

// EnsureTokenCache builds the component's token index exactly once. The
// index maps every stemmed token extracted from the component's searchable
// fields to the set of fields it occurred in. Addons contribute their own
// tokens to the component they extend, so an addon is discoverable through
// a search for its parent.
func (c *Component) EnsureTokenCache(st *tokenizer.Stemmer) {
	c.tokensOnce.Do(func() {
		c.tokens = make(map[string]TokenMatch)
		c.indexTokensFrom(c, st)
		for _, addon := range c.addons {
			c.indexTokensFrom(addon, st)
		}
	})
}

// indexTokensFrom feeds one donor's searchable fields into the token index.
func (c *Component) indexTokensFrom(donor *Component, st *tokenizer.Stemmer) {
	if donor.ID != "" {
		c.addToken(donor.ID, false, TokenMatchID, st)
	}
	if name := donor.Name(); name != "" {
		c.addTokens(name, true, TokenMatchName, st)
	}
	if summary := donor.Summary(); summary != "" {
		c.addTokens(summary, true, TokenMatchSummary, st)
	}
	if desc := donor.Description(); desc != "" {
		c.addTokens(desc, false, TokenMatchDescription, st)
	}
	for _, kw := range donor.Keywords() {
		c.addTokens(kw, false, TokenMatchKeyword, st)
	}
	if prov := donor.ProvidedForKind(ProvidedKindMediatype); prov != nil {
		for _, item := range prov.Items {
			c.addToken(item, false, TokenMatchMediatype, st)
		}
	}
	for _, pkg := range donor.PkgNames {
		c.addToken(pkg, false, TokenMatchPkgName, st)
	}
	if donor.Origin != "" {
		c.addToken(donor.Origin, false, TokenMatchOrigin, st)
	}
}

// addTokens tokenizes a free-form value and indexes the results. Values
// containing "+" or "-" would be mangled by the general tokenizer ("C++",
// "Half-Life"), so they are indexed as one token instead, with hyphen
// sub-tokens when splitting is allowed.
func (c *Component) addTokens(value string, allowSplit bool, flag TokenMatch, st *tokenizer.Stemmer) {
	if strings.ContainsAny(value, "+-") {
		c.addToken(value, allowSplit, flag, st)
		return
	}
	for _, tok := range tokenizer.Fold(value) {
		c.addToken(tok, allowSplit, flag, st)
	}
}

// addToken indexes a single value. When splitting is allowed, hyphenated
// values like "x-plane" additionally index each hyphen-separated part; the
// whole token is always indexed.
func (c *Component) addToken(value string, allowSplit bool, flag TokenMatch, st *tokenizer.Stemmer) {
	if allowSplit && strings.Contains(value, "-") {
		for _, part := range strings.Split(value, "-") {
			c.putToken(part, flag, st)
		}
	}
	c.putToken(value, flag, st)
}

// putToken validates, stems and records one token.
func (c *Component) putToken(value string, flag TokenMatch, st *tokenizer.Stemmer) {
	value = tokenizer.FoldCase(value)
	if !tokenizer.TokenValid(value) {
		return
	}
	// short tokens only carry meaning in the important fields
	if len(value) < 3 && flag < TokenMatchSummary {
		return
	}
	stemmed := st.Stem(value)
	if stemmed == "" {
		return
	}
	c.tokens[stemmed] |= flag
}

// SearchMatches scores one pre-stemmed term against the token index. An
// exact token hit returns the field mask shifted left by two, outranking
// prefix hits, which contribute their field masks OR'd together.
func (c *Component) SearchMatches(st *tokenizer.Stemmer, term string) uint {
	if term == "" {
		return 0
	}
	c.EnsureTokenCache(st)

	if mask, ok := c.tokens[term]; ok {
		return uint(mask) << 2
	}

	var result TokenMatch
	for tok, mask := range c.tokens {
		if strings.HasPrefix(tok, term) {
			result |= mask
		}
	}
	return uint(result)
}

// SearchMatchesAll scores a multi-term query: every term must match on its
// own, and the final score is the OR of the per-term scores. An empty term
// list usually means the search string tokenized to nothing useful; it is
// treated as match-all with a uniform minimal score. The score is also
// stored on the component for later sorting.
func (c *Component) SearchMatchesAll(st *tokenizer.Stemmer, terms []string) uint {
	c.sortScore = 0
	if len(terms) == 0 {
		c.sortScore = 1
		return c.sortScore
	}

	var sum uint
	for _, term := range terms {
		m := c.SearchMatches(st, term)
		if m == 0 {
			return 0
		}
		sum |= m
	}
	c.sortScore = sum
	return sum
}

// SearchTokens returns all tokens in the component's index, sorted.
func (c *Component) SearchTokens(st *tokenizer.Stemmer) []string {
	c.EnsureTokenCache(st)
	tokens := make([]string, 0, len(c.tokens))
	for tok := range c.tokens {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// TokenCache exposes the token index table. The map is shared with the
// component, callers must not modify it.
func (c *Component) TokenCache(st *tokenizer.Stemmer) map[string]TokenMatch {
	c.EnsureTokenCache(st)
	return c.tokens
}
