package locations

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

//go:embed data/locations.txt
var dataFS embed.FS

const defaultListPath = "data/locations.txt"

// Place is a neighbourhood within a city.
type Place struct {
	Area string `json:"area"`
	City string `json:"city"`
}

// Label renders "Area, City".
func (p Place) Label() string {
	if p.City == "" {
		return p.Area
	}
	return p.Area + ", " + p.City
}

var (
	defaultOnce   sync.Once
	defaultPlaces []Place
	defaultErr    error
)

// DefaultPlaces returns a copy of the embedded list.
func DefaultPlaces() ([]Place, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()
		defaultPlaces, defaultErr = LoadPlaces(f)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return append([]Place{}, defaultPlaces...), nil
}

// LoadPlaces parses "area|city" lines. Blank lines and # comments are
// skipped, duplicates dropped, and the result sorted by city then area.
func LoadPlaces(r io.Reader) ([]Place, error) {
	if r == nil {
		return nil, fmt.Errorf("locations: missing reader")
	}

	scanner := bufio.NewScanner(r)
	places := make([]Place, 0, 64)
	seen := map[string]struct{}{}
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		area, city, _ := strings.Cut(text, "|")
		place := Place{Area: strings.TrimSpace(area), City: strings.TrimSpace(city)}
		if place.Area == "" {
			return nil, fmt.Errorf("locations: line %d: missing area", line)
		}
		key := strings.ToLower(place.Label())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		places = append(places, place)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(places, func(i, j int) bool {
		if places[i].City != places[j].City {
			return places[i].City < places[j].City
		}
		return places[i].Area < places[j].Area
	})
	return places, nil
}
