package cache

import (
	"fmt"
	"sort"

	"github.com/swcatalog/swindex/internal/component"
)

// Search matches the given terms against the token index and returns the
// scored results. All terms must match a component for it to be part of
// the result. Terms are expected to be pre-processed by the token
// pipeline; raw user input goes through Pool.BuildSearchTokens first.
//
// When sortResults is set, results are ordered by descending relevance.
func (c *Cache) Search(terms []string, sortResults bool) ([]*component.Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(terms) == 0 {
		return nil, nil
	}

	sc := newScratch()
	for _, sec := range c.sections {
		scores, err := c.sectionScoresLocked(sec, terms)
		if err != nil {
			return nil, fmt.Errorf("%w: search section %s: %v", ErrFailed, sec.key, err)
		}
		if len(scores) == 0 {
			continue
		}
		refs := make([]int64, 0, len(scores))
		for ref := range scores {
			refs = append(refs, ref)
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
		rows, err := sec.silo.Refs(refs)
		if err != nil {
			return nil, fmt.Errorf("%w: search section %s: %v", ErrFailed, sec.key, err)
		}
		for _, row := range rows {
			c.collectRowLocked(sc, sec, row, scores[row.Ref], true)
		}
	}

	out := sc.cpts
	if sortResults {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SortScore() > out[j].SortScore()
		})
	}
	return out, nil
}

// sectionScoresLocked computes the per-component relevance of the term
// set within one section. Each term contributes the union of the match
// field weights of its hits; a component missing any term is dropped.
func (c *Cache) sectionScoresLocked(sec *section, terms []string) (map[int64]uint, error) {
	var combined map[int64]uint
	for _, term := range terms {
		hits, err := sec.silo.SearchTerm(term)
		if err != nil {
			return nil, err
		}
		perTerm := make(map[int64]uint, len(hits))
		for _, h := range hits {
			perTerm[h.Ref] |= uint(h.Field)
		}
		if combined == nil {
			combined = perTerm
			continue
		}
		for ref := range combined {
			if m, ok := perTerm[ref]; ok {
				combined[ref] |= m
			} else {
				delete(combined, ref)
			}
		}
	}
	return combined, nil
}
