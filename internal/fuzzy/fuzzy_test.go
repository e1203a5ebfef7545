package fuzzy

import (
	"sort"
	"testing"
)

func names(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

func contains(matches []Match, s string) bool {
	for _, m := range matches {
		if m.Str == s {
			return true
		}
	}
	return false
}

func TestFilterEmptyQueryKeepsOrder(t *testing.T) {
	candidates := []string{"zeta", "alpha", "mid"}
	matches := Filter("", candidates)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i, m := range matches {
		if m.Index != i || m.Str != candidates[i] {
			t.Fatalf("expected original order, got %+v", matches)
		}
	}
}

func TestFilterLowercaseIgnoresCase(t *testing.T) {
	matches := Filter("main", []string{"main.rs", "Main.rs", "remainder.rs", "config.toml"})
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %v", names(matches))
	}
	if contains(matches, "config.toml") {
		t.Fatalf("config.toml should not match: %v", names(matches))
	}
}

func TestFilterUppercaseIsCaseSensitive(t *testing.T) {
	matches := Filter("Main", []string{"main.rs", "Main.rs", "remainder.rs"})
	if len(matches) != 1 || matches[0].Str != "Main.rs" {
		t.Fatalf("expected only Main.rs, got %v", names(matches))
	}
}

func TestFilterSubsequenceNotSubstring(t *testing.T) {
	matches := Filter("mrs", []string{"main.rs", "config.toml"})
	if len(matches) != 1 || matches[0].Str != "main.rs" {
		t.Fatalf("expected main.rs, got %v", names(matches))
	}
}

func TestFilterReportsMatchedIndexes(t *testing.T) {
	matches := Filter("ab", []string{"axbx"})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	idx := matches[0].MatchedIndexes
	if !sort.IntsAreSorted(idx) || len(idx) != 2 {
		t.Fatalf("expected 2 sorted indexes, got %v", idx)
	}
	if idx[0] != 0 || idx[1] != 2 {
		t.Fatalf("expected indexes [0 2], got %v", idx)
	}
}

func TestFilterRanksTighterMatchFirst(t *testing.T) {
	matches := Filter("abc", []string{"a_x_b_x_c", "abc.txt"})
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", names(matches))
	}
	if matches[0].Str != "abc.txt" {
		t.Fatalf("expected abc.txt ranked first, got %v", names(matches))
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		query     string
		candidate string
		want      bool
	}{
		{"", "anything", true},
		{"abc", "aXbXc", true},
		{"abc", "acb", false},
		{"ABC", "abc", false},
		{"ABC", "AxBxC", true},
		{"abc", "ABC", true},
	}
	for _, tc := range cases {
		if got := Matches(tc.query, tc.candidate); got != tc.want {
			t.Fatalf("Matches(%q, %q): expected %v, got %v", tc.query, tc.candidate, tc.want, got)
		}
	}
}
