// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import (
	"cmp"
	"slices"
	"strings"

	"github.com/AleutianAI/sara/services/sara/graph"
	"github.com/AleutianAI/sara/services/sara/model"
)

// MaxSuggestions is the number of identifiers offered on a missed lookup.
const MaxSuggestions = 3

// LookupOrSuggest returns the item named id.
//
// Description:
//
//	On a miss, every known identifier is scored by case-insensitive
//	Levenshtein distance to id. Candidates within SuggestionThreshold are
//	returned closest first, ties broken by identifier.
//
// Outputs:
//
//	*model.Item - The item when found.
//	error - *NotFoundError on a miss, possibly with no suggestions.
//
// Example:
//
//	_, err := LookupOrSuggest(g, "SOL-X") // only SOL-1 exists
//	// err.(*NotFoundError).Suggestions == []string{"SOL-1"}
func LookupOrSuggest(g *graph.KnowledgeGraph, id string) (*model.Item, error) {
	if item, ok := g.Get(id); ok {
		return item, nil
	}
	return nil, &NotFoundError{ID: id, Suggestions: Suggest(g.IDs(), id, MaxSuggestions)}
}

// SuggestionThreshold is the largest edit distance accepted for a query:
// a third of its length, but never less than 2.
func SuggestionThreshold(query string) int {
	return max(2, len(query)/3)
}

// Suggest ranks candidates by edit distance to query and returns at most
// limit of them within SuggestionThreshold. A limit of zero or less yields
// no suggestions.
func Suggest(candidates []string, query string, limit int) []string {
	type scored struct {
		id       string
		distance int
	}

	threshold := SuggestionThreshold(query)
	lowered := strings.ToLower(query)

	var matches []scored
	for _, c := range candidates {
		d := levenshtein(lowered, strings.ToLower(c))
		if d <= threshold {
			matches = append(matches, scored{id: c, distance: d})
		}
	}

	slices.SortFunc(matches, func(a, b scored) int {
		return cmp.Or(cmp.Compare(a.distance, b.distance), strings.Compare(a.id, b.id))
	})

	n := min(max(limit, 0), len(matches))
	out := make([]string, 0, n)
	for _, m := range matches[:n] {
		out = append(out, m.id)
	}
	return out
}

// levenshtein computes the edit distance between a and b over bytes.
//
// Uses two rows instead of a full matrix, so space is O(min(m, n)).
// Identifiers are ASCII, so byte comparison is exact.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1]
			} else {
				curr[i] = 1 + min(prev[i-1], prev[i], curr[i-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}
