// Package client wraps the marketplace REST API: auth, tenant profiles,
// applications, properties, favorites and location search. A Session
// supplies the bearer token for every request and is invalidated when the
// backend answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes int64 = 10 << 20

// ErrResponseTooLarge is returned when a body exceeds the configured cap.
var ErrResponseTooLarge = errors.New("client: response body too large")

// RequestInterceptor runs before every request is sent.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs after every response is received and before the
// body is decoded. Returning an error aborts the call.
type ResponseInterceptor func(req *http.Request, resp *http.Response) error

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession sets the session that supplies and receives tokens.
func WithSession(s *Session) Option {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnUnauthorized registers the redirect hook run after a 401 invalidated
// the session, e.g. sending the user back to sign in.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestInterceptors = append(c.requestInterceptors, fn)
		}
	}
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(fn ResponseInterceptor) Option {
	return func(c *Client) {
		if fn != nil {
			c.responseInterceptors = append(c.responseInterceptors, fn)
		}
	}
}

// WithMaxResponseBytes overrides DefaultMaxResponseBytes.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// Client talks to the marketplace backend.
type Client struct {
	baseURL              *url.URL
	http                 *http.Client
	session              *Session
	logger               *slog.Logger
	userAgent            string
	maxResponseBytes     int64
	onUnauthorized       func()
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor

	Auth         *AuthService
	Tenants      *TenantService
	Applications *ApplicationService
	Properties   *PropertyService
	Favorites    *FavoriteService
	Locations    *LocationService
}

// New constructs a client for baseURL (for example https://api.example.com).
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{Timeout: DefaultTimeout},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		userAgent:        "go-rentflow",
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.session == nil {
		session, err := NewSession(nil)
		if err != nil {
			return nil, err
		}
		c.session = session
	}

	// built-ins run first so callers can observe or override them
	c.requestInterceptors = append([]RequestInterceptor{c.attachToken}, c.requestInterceptors...)
	c.responseInterceptors = append([]ResponseInterceptor{c.handleUnauthorized}, c.responseInterceptors...)

	c.Auth = &AuthService{c: c}
	c.Tenants = &TenantService{c: c}
	c.Applications = &ApplicationService{c: c}
	c.Properties = &PropertyService{c: c}
	c.Favorites = &FavoriteService{c: c}
	c.Locations = &LocationService{c: c}
	return c, nil
}

// Session returns the session used by the client.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) attachToken(req *http.Request) error {
	if req.Header.Get("Authorization") != "" {
		return nil
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// handleUnauthorized clears the session when an authenticated request is
// rejected. Anonymous 401s (bad login credentials) leave the session alone.
func (c *Client) handleUnauthorized(req *http.Request, resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized || req.Header.Get("Authorization") == "" {
		return nil
	}
	c.logger.Warn("client: session rejected", "method", req.Method, "path", req.URL.Path)
	if err := c.session.Invalidate(); err != nil {
		c.logger.Error("client: clear session", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// NewRequest builds a request against the API root.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Do sends req through the interceptors and decodes a JSON response into out
// (when non-nil). Non-2xx responses become *APIError.
func (c *Client) Do(req *http.Request, out any) error {
	for _, fn := range c.requestInterceptors {
		if err := fn(req); err != nil {
			return fmt.Errorf("client: request interceptor: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("client: request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug("client: response", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	for _, fn := range c.responseInterceptors {
		if err := fn(req, resp); err != nil {
			return fmt.Errorf("client: response interceptor: %w", err)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}
	truncated := int64(len(body)) > c.maxResponseBytes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if truncated {
			// a clipped body is not valid JSON; fall back to the status table
			return parseError(resp.StatusCode, nil)
		}
		return parseError(resp.StatusCode, body)
	}
	if truncated {
		return fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, req.Method, req.URL.Path, c.maxResponseBytes)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.NewRequest(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// errRequired reports a missing argument.
func errRequired(name string) error {
	return errors.New("client: " + name + " is required")
}
