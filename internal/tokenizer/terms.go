package tokenizer

import "strings"

// SearchGreylist holds words too generic to be useful as search terms on
// their own. They are stripped from queries unless the query consists of
// nothing else.
const SearchGreylist = "app;application;package;program;programme;suite;tool"

// PrepareSearchTerms normalizes a user search string into stemmed query
// terms: case folding, greylist filtering, whitespace splitting, token
// validation and stemming. An empty result means the query was too broad to
// match against the index; callers usually treat that as match-all.
func PrepareSearchTerms(st *Stemmer, search string) []string {
	folded := strings.TrimSpace(FoldCase(search))
	if folded == "" {
		return nil
	}

	stripped := folded
	for _, word := range strings.Split(SearchGreylist, ";") {
		stripped = strings.ReplaceAll(stripped, word, "")
	}
	stripped = strings.TrimSpace(stripped)
	// the query was made up entirely of greylist words, use it as-is then
	if stripped == "" {
		stripped = folded
	}

	var terms []string
	seen := make(map[string]struct{})
	for _, part := range strings.Fields(stripped) {
		if !TokenValid(part) {
			continue
		}
		stemmed := st.Stem(part)
		if stemmed == "" {
			continue
		}
		if _, dup := seen[stemmed]; dup {
			continue
		}
		seen[stemmed] = struct{}{}
		terms = append(terms, stemmed)
	}
	return terms
}
