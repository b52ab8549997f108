// Package suggest produces autocomplete suggestions for the search box.
// Exact substring hits come first; close misspellings are supplemented by
// Levenshtein distance so "fictoin" still surfaces "Fiction".
package suggest

import (
	"sort"
	"strings"

	"libraryhub/internal/storage"
)

const (
	// MinQueryLen gates suggestions entirely; MinFuzzyLen gates the fuzzy
	// supplement, which is too noisy on very short queries.
	MinQueryLen = 2
	MinFuzzyLen = 3

	perKindLimit = 5
	totalLimit   = 8
)

type Suggestion struct {
	Value    string `json:"value"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

// Levenshtein returns the edit distance between two strings, counted in
// runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j-1], curr[j-1], prev[j]) + 1
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// fuzzyMatch accepts a candidate whose distance from the query is positive
// and within 40% of the query length.
func fuzzyMatch(text, query string) bool {
	if len(query) < MinFuzzyLen {
		return false
	}
	d := Levenshtein(text, query)
	return d > 0 && d <= len(query)*2/5
}

type kind struct {
	name     string // suggestion type
	category string // display label
	values   []string
}

// Build assembles suggestions for a query from the book vocabulary.
// kindFilter is one of all, titles, authors, genres.
func Build(v storage.Vocabulary, query, kindFilter string) []Suggestion {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return []Suggestion{}
	}
	q := strings.ToLower(query)

	kinds := []kind{
		{name: "title", category: "Title", values: v.Titles},
		{name: "author", category: "Author", values: v.Authors},
		{name: "genre", category: "Genre", values: v.Genres},
	}

	wantKind := func(k kind) bool {
		switch kindFilter {
		case "", "all":
			return true
		default:
			return kindFilter == k.name+"s"
		}
	}

	out := make([]Suggestion, 0, totalLimit)
	var fuzzy []scored

	for _, k := range kinds {
		if !wantKind(k) {
			continue
		}
		matched := 0
		for _, val := range k.values {
			lower := strings.ToLower(val)
			if strings.Contains(lower, q) {
				if matched < perKindLimit {
					out = append(out, Suggestion{Value: val, Type: k.name, Category: k.category})
					matched++
				}
				continue
			}
			if fuzzyMatch(lower, q) {
				fuzzy = append(fuzzy, scored{
					s: Suggestion{Value: val, Type: k.name, Category: k.category},
					d: Levenshtein(lower, q),
				})
			}
		}
	}

	// Closest misses first, value order breaking ties.
	sort.Slice(fuzzy, func(i, j int) bool {
		if fuzzy[i].d != fuzzy[j].d {
			return fuzzy[i].d < fuzzy[j].d
		}
		return fuzzy[i].s.Value < fuzzy[j].s.Value
	})
	for _, f := range fuzzy {
		out = append(out, f.s)
	}

	if len(out) > totalLimit {
		out = out[:totalLimit]
	}
	return out
}

type scored struct {
	s Suggestion
	d int
}
