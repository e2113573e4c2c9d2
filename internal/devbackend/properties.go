package devbackend

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/listing"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := listing.Filter{
		Location:     strings.TrimSpace(q.Get("location")),
		MinPrice:     parseFloat(q, "min_price"),
		MaxPrice:     parseFloat(q, "max_price"),
		Bedrooms:     parseInt(q, "bedrooms"),
		PropertyType: strings.TrimSpace(q.Get("property_type")),
	}

	s.mu.Lock()
	matched := filter.Apply(s.properties)
	s.mu.Unlock()
	listing.Sort(matched, listing.SortNewest)

	page, limit := parseInt(q, "page"), parseInt(q, "limit")
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	start := (page - 1) * limit
	if start >= len(matched) {
		writeJSON(w, http.StatusOK, []client.Property{})
		return
	}
	writeJSON(w, http.StatusOK, matched[start:min(start+limit, len(matched))])
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := s.property(mux.Vars(r)["id"])
	if !ok {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) property(id string) (client.Property, bool) {
	if id == "" {
		return client.Property{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.properties {
		if p.ID == id {
			return p, true
		}
	}
	return client.Property{}, false
}

func parseFloat(q url.Values, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(q.Get(key)), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseInt(q url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
