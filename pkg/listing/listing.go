// Package listing filters and orders property listings in memory.
package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/client"
)

// Filter narrows a property list. Zero fields do not constrain.
type Filter struct {
	Location     string
	MinPrice     float64
	MaxPrice     float64
	Bedrooms     int
	PropertyType string
	Amenities    []string
	VerifiedOnly bool
}

// Match reports whether p satisfies every set constraint. Location and
// property type match case-insensitively, location as a substring. Bedrooms
// is a minimum.
func (f Filter) Match(p client.Property) bool {
	if loc := strings.TrimSpace(f.Location); loc != "" {
		if !strings.Contains(strings.ToLower(p.Location), strings.ToLower(loc)) &&
			!strings.Contains(strings.ToLower(p.Title), strings.ToLower(loc)) {
			return false
		}
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.Bedrooms > 0 && p.Bedrooms < f.Bedrooms {
		return false
	}
	if t := strings.TrimSpace(f.PropertyType); t != "" && !strings.EqualFold(t, p.PropertyType) {
		return false
	}
	if f.VerifiedOnly && !p.Verified {
		return false
	}
	for _, want := range f.Amenities {
		if !hasAmenity(p.Amenities, want) {
			return false
		}
	}
	return true
}

func hasAmenity(list []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	for _, a := range list {
		if strings.EqualFold(strings.TrimSpace(a), want) {
			return true
		}
	}
	return false
}

// Apply returns the properties matching f, preserving order.
func (f Filter) Apply(props []client.Property) []client.Property {
	out := make([]client.Property, 0, len(props))
	for _, p := range props {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Query converts the server-side subset of f into a client query.
func (f Filter) Query() client.PropertyQuery {
	return client.PropertyQuery{
		Location:     f.Location,
		MinPrice:     f.MinPrice,
		MaxPrice:     f.MaxPrice,
		Bedrooms:     f.Bedrooms,
		PropertyType: f.PropertyType,
	}
}

// SortKey names an ordering.
type SortKey string

const (
	SortRelevance SortKey = ""
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNewest    SortKey = "newest"
	SortBedrooms  SortKey = "bedrooms"
)

// ParseSortKey validates a user supplied key.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortBedrooms:
		return key, nil
	default:
		return "", fmt.Errorf("listing: unknown sort %q", s)
	}
}

// Sort orders props in place. The sort is stable so equal keys keep their
// server order; relevance leaves the slice untouched.
func Sort(props []client.Property, key SortKey) {
	var less func(a, b client.Property) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b client.Property) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b client.Property) bool { return a.Price > b.Price }
	case SortNewest:
		less = func(a, b client.Property) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortBedrooms:
		less = func(a, b client.Property) bool { return a.Bedrooms > b.Bedrooms }
	default:
		return
	}
	sort.SliceStable(props, func(i, j int) bool { return less(props[i], props[j]) })
}
