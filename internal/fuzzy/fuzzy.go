// Package fuzzy narrows entry lists by subsequence match. A query
// containing any uppercase rune matches case-sensitively; an all
// lowercase query ignores case.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Match is one surviving candidate with the rune indexes that matched,
// usable for highlighting.
type Match struct {
	Index          int
	Str            string
	MatchedIndexes []int
}

// Filter returns the candidates matching query, best score first.
// An empty query matches everything in the original order.
func Filter(query string, candidates []string) []Match {
	if query == "" {
		all := make([]Match, len(candidates))
		for i, s := range candidates {
			all[i] = Match{Index: i, Str: s}
		}
		return all
	}

	sensitive := hasUpper(query)
	results := fuzzy.Find(query, candidates)
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if sensitive && !subsequence(query, r.Str) {
			continue
		}
		matches = append(matches, Match{
			Index:          r.Index,
			Str:            r.Str,
			MatchedIndexes: r.MatchedIndexes,
		})
	}
	return matches
}

// Matches reports whether query is a subsequence of candidate under the
// same smart-case rule Filter applies.
func Matches(query, candidate string) bool {
	if query == "" {
		return true
	}
	if hasUpper(query) {
		return subsequence(query, candidate)
	}
	return subsequence(strings.ToLower(query), strings.ToLower(candidate))
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func subsequence(needle, haystack string) bool {
	runes := []rune(needle)
	i := 0
	for _, r := range haystack {
		if i == len(runes) {
			return true
		}
		if r == runes[i] {
			i++
		}
	}
	return i == len(runes)
}
