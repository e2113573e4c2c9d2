package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Location is an autocomplete suggestion for location fields.
type Location struct {
	Value string `json:"value"`
	Label string `json:"label"`
	City  string `json:"city,omitempty"`
}

// LocationService backs location autocomplete.
type LocationService struct {
	c *Client
}

// Suggest returns up to limit locations matching the partial input. A
// non-positive limit uses the server default.
func (s *LocationService) Suggest(ctx context.Context, partial string, limit int) ([]Location, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return nil, nil
	}
	q := url.Values{"q": {partial}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Data []Location `json:"data"`
	}
	if err := s.c.getJSON(ctx, apiPrefix+"/locations", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
