package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ApplicationService covers rental applications.
type ApplicationService struct {
	c *Client
}

// Create posts a multipart application built by b.
func (s *ApplicationService) Create(ctx context.Context, b *RequestBuilder) (*Application, error) {
	if b == nil {
		return nil, errRequired("request builder")
	}
	body, contentType, err := b.Build()
	if err != nil {
		return nil, err
	}
	req, err := s.c.NewRequest(ctx, http.MethodPost, apiPrefix+"/applications", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	var out Application
	if err := s.c.Do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the caller's applications.
func (s *ApplicationService) List(ctx context.Context) ([]Application, error) {
	var out []Application
	if err := s.c.getJSON(ctx, apiPrefix+"/applications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errRequired("application id")
	}
	var out Application
	if err := s.c.getJSON(ctx, apiPrefix+"/applications/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
