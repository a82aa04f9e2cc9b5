package search

import (
	"strings"
	"unicode"
)

// verbatimBoost is added to a match's score when the chunk carries every
// significant term of the query. Learners often quote policy wording
// ("expense report", "time off") word for word, and the chunk with the exact
// phrasing should outrank a merely related one.
const verbatimBoost = 0.3

// fillerTerms are query words too common in course content to signal intent.
var fillerTerms = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "my": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"with": {}, "you": {}, "your": {},
}

// significantTerms lowercases text, splits on anything that is not a letter
// or digit and drops filler terms.
func significantTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := fields[:0]
	for _, field := range fields {
		if _, filler := fillerTerms[field]; !filler {
			terms = append(terms, field)
		}
	}
	return terms
}

// containsVerbatim reports whether content carries every significant term of
// the query. A query made up entirely of filler is never a verbatim match.
func containsVerbatim(content, query string) bool {
	queryTerms := significantTerms(query)
	if len(queryTerms) == 0 {
		return false
	}

	present := make(map[string]struct{})
	for _, term := range significantTerms(content) {
		present[term] = struct{}{}
	}

	for _, term := range queryTerms {
		if _, ok := present[term]; !ok {
			return false
		}
	}
	return true
}
