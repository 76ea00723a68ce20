package pool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/tokenizer"
)

// BuildSearchTokens turns a user search string into the matching terms
// Search runs: case-folded, tokenized and stemmed for the pool locale.
// Terms too generic to narrow anything are dropped; an empty result means
// the whole search was too generic.
func (p *Pool) BuildSearchTokens(search string) []string {
	return tokenizer.PrepareSearchTerms(p.stemmer, search)
}

// Search runs a ranked full-text query over the pool.
//
// Results come ordered by descending match score. A search that yields no
// usable terms matches everything rather than nothing. Repeated searches
// are served from a small result cache that empties whenever the pool
// contents change.
func (p *Pool) Search(ctx context.Context, search string) ([]*component.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := p.BuildSearchTokens(search)
	if len(terms) == 0 {
		slog.Debug("search too generic, matching everything",
			slog.String("search", search))
		return p.cache.All()
	}

	key := resultKey(p.generation.Load(), p.cache.Locale(), terms)
	if cached, ok := p.results.Get(key); ok {
		return cached, nil
	}

	res, err := p.cache.Search(terms, true)
	if err != nil {
		return nil, err
	}
	p.results.Add(key, res)
	return res, nil
}

// resultKey builds the cache key for one search. The generation counter
// salts the key so mutated pools never serve stale slices.
func resultKey(generation uint64, locale string, terms []string) string {
	h := sha256.Sum256([]byte(strconv.FormatUint(generation, 10) + "\x00" + locale + "\x00" + strings.Join(terms, " ")))
	return hex.EncodeToString(h[:])
}
