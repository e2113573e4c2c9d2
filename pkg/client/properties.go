package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// PropertyService reads listings.
type PropertyService struct {
	c *Client
}

// Values encodes the query, omitting zero fields.
func (q PropertyQuery) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Location); s != "" {
		v.Set("location", s)
	}
	if q.MinPrice > 0 {
		v.Set("min_price", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		v.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.Bedrooms > 0 {
		v.Set("bedrooms", strconv.Itoa(q.Bedrooms))
	}
	if s := strings.TrimSpace(q.PropertyType); s != "" {
		v.Set("property_type", s)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// List returns listings matching q.
func (s *PropertyService) List(ctx context.Context, q PropertyQuery) ([]Property, error) {
	var out []Property
	if err := s.c.getJSON(ctx, apiPrefix+"/properties", q.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single listing.
func (s *PropertyService) Get(ctx context.Context, id string) (*Property, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errRequired("property id")
	}
	var out Property
	if err := s.c.getJSON(ctx, apiPrefix+"/properties/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
