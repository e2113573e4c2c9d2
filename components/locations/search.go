package locations

import (
	"sort"
	"strings"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Value string `json:"value"`
	Label string `json:"label"`
	City  string `json:"city,omitempty"`
}

// Search ranks places whose area or city contains query. Area prefix
// matches come first, then city prefix matches, then substring matches.
func Search(places []Place, query string, limit int, opts Options) []Place {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			return append([]Place{}, places[:min(limit, len(places))]...)
		}
		return nil
	}

	matches := make([]rankedPlace, 0, 16)
	for _, place := range places {
		area, city := strings.ToLower(place.Area), strings.ToLower(place.City)
		rank := -1
		switch {
		case strings.HasPrefix(area, query):
			rank = 0
		case strings.HasPrefix(city, query):
			rank = 1
		case strings.Contains(strings.ToLower(place.Label()), query):
			rank = 2
		}
		if rank >= 0 {
			matches = append(matches, rankedPlace{place: place, rank: rank})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Place, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.place)
	}
	return out
}

// Suggest wraps Search results for JSON responses.
func Suggest(places []Place, query string, limit int, opts Options) []Suggestion {
	results := Search(places, query, limit, opts)
	if len(results) == 0 {
		return nil
	}
	out := make([]Suggestion, 0, len(results))
	for _, p := range results {
		out = append(out, Suggestion{Value: p.Label(), Label: p.Label(), City: p.City})
	}
	return out
}

type rankedPlace struct {
	place Place
	rank  int
}
