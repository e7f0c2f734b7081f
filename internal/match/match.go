// Package match locates the single best market for a set of search terms
// among a platform's live listings.
package match

import (
	"math"
	"sort"
	"strings"
)

// Item is one candidate listing. Title and Slug together form the text the
// terms are matched against; Volume breaks ties between equally good matches.
type Item struct {
	Title  string
	Slug   string
	Volume float64
}

type scored struct {
	index      int
	score      int
	exactScore int
	volume     float64
}

// Best returns the index of the best-matching item, or -1 when no item meets
// the threshold.
//
// Each term scores against an item two ways: an exact whole-word hit on the
// tokenized title/slug, or a substring hit on the raw lowercase text. An item
// survives only if at least 60% of terms hit at all AND at least one term hit
// as an exact word — a pure substring match is rejected because short terms
// collide inside unrelated longer tokens (e.g. "nba" inside "unbanked").
// Survivors order by exact hits, then total hits, then platform volume.
//
// Best is pure and deterministic; it performs no I/O.
func Best(items []Item, terms []string) int {
	if len(items) == 0 || len(terms) == 0 {
		return -1
	}

	threshold := int(math.Ceil(0.6 * float64(len(terms))))

	var survivors []scored
	for i, item := range items {
		title := strings.ToLower(item.Title)
		slug := strings.ToLower(item.Slug)
		words := tokenize(title, slug)

		var score, exactScore int
		for _, term := range terms {
			term = strings.ToLower(term)
			exact := words[term]
			if exact {
				exactScore++
			}
			if exact || strings.Contains(title, term) || strings.Contains(slug, term) {
				score++
			}
		}

		if score < threshold || exactScore == 0 {
			continue
		}
		survivors = append(survivors, scored{index: i, score: score, exactScore: exactScore, volume: item.Volume})
	}

	if len(survivors) == 0 {
		return -1
	}

	sort.SliceStable(survivors, func(a, b int) bool {
		if survivors[a].exactScore != survivors[b].exactScore {
			return survivors[a].exactScore > survivors[b].exactScore
		}
		if survivors[a].score != survivors[b].score {
			return survivors[a].score > survivors[b].score
		}
		return survivors[a].volume > survivors[b].volume
	})

	return survivors[0].index
}

// tokenize splits lowercase title and slug into a word set. Slugs are
// hyphen-separated, so hyphens split like whitespace.
func tokenize(title, slug string) map[string]bool {
	words := make(map[string]bool)
	split := func(s string) {
		for _, w := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '-'
		}) {
			words[strings.Trim(w, ".,:;?!()\"'")] = true
		}
	}
	split(title)
	split(slug)
	return words
}
