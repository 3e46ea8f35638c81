package business

import "sort"

const recommendFallbackLimit = 10

// Recommend scores every restaurant by how many of its categories appear in
// the user's preferences and returns the matches sorted best-first. With no
// preferences it falls back to the first restaurants in listing order.
func Recommend(all []Business, prefs []string) []Business {
	if len(prefs) == 0 {
		if len(all) > recommendFallbackLimit {
			return all[:recommendFallbackLimit]
		}
		return all
	}

	wanted := make(map[string]bool, len(prefs))
	for _, p := range prefs {
		wanted[p] = true
	}

	type scored struct {
		b     Business
		score int
	}
	var matches []scored
	for _, b := range all {
		n := 0
		for _, c := range b.Categories {
			if wanted[c] {
				n++
			}
		}
		if n > 0 {
			matches = append(matches, scored{b: b, score: n})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]Business, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.b)
	}
	return out
}
