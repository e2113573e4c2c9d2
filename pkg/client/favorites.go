package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// FavoriteService manages saved listings.
type FavoriteService struct {
	c *Client
}

// List returns the caller's favorites.
func (s *FavoriteService) List(ctx context.Context) ([]Favorite, error) {
	var out []Favorite
	if err := s.c.getJSON(ctx, apiPrefix+"/favorites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add saves a property.
func (s *FavoriteService) Add(ctx context.Context, propertyID string) (*Favorite, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return nil, errRequired("property id")
	}
	var out Favorite
	body := map[string]string{"property_id": propertyID}
	if err := s.c.sendJSON(ctx, http.MethodPost, apiPrefix+"/favorites", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove deletes a saved property.
func (s *FavoriteService) Remove(ctx context.Context, propertyID string) error {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return errRequired("property id")
	}
	return s.c.sendJSON(ctx, http.MethodDelete, apiPrefix+"/favorites/"+url.PathEscape(propertyID), nil, nil)
}
