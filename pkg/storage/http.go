package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

// StatusError is a non-2xx storage response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("storage: upload failed with status %d", e.Status)
	}
	return fmt.Sprintf("storage: upload failed with status %d: %s", e.Status, e.Body)
}

// HTTPOption configures an HTTPUploader.
type HTTPOption func(*HTTPUploader)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(u *HTTPUploader) {
		if hc != nil {
			u.http = hc
		}
	}
}

// WithAPIKey sets the bearer key sent with each upload.
func WithAPIKey(key string) HTTPOption {
	return func(u *HTTPUploader) {
		u.apiKey = strings.TrimSpace(key)
	}
}

// WithLogger routes upload diagnostics to logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(u *HTTPUploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// HTTPUploader speaks the object-storage REST dialect:
// POST {base}/storage/v1/object/{bucket}/{key}, public objects served from
// {base}/storage/v1/object/public/{bucket}/{key}.
type HTTPUploader struct {
	base   string
	bucket string
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

// NewHTTPUploader returns an uploader for bucket on the storage host base.
func NewHTTPUploader(base, bucket string, opts ...HTTPOption) (*HTTPUploader, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("storage: invalid base url %q", base)
	}
	bucket = strings.Trim(strings.TrimSpace(bucket), "/")
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	u := &HTTPUploader{
		base:   base,
		bucket: bucket,
		http:   http.DefaultClient,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// PublicURL returns the URL an uploaded key is served from.
func (u *HTTPUploader) PublicURL(key string) string {
	return u.base + "/storage/v1/object/public/" + u.bucket + "/" + escapeKey(key)
}

// Upload streams file to the bucket.
func (u *HTTPUploader) Upload(ctx context.Context, key string, file staging.FileRef) (string, error) {
	if err := CheckKey(key); err != nil {
		return "", err
	}
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open %s: %w", file.Name, err)
	}
	defer src.Close()

	endpoint := u.base + "/storage/v1/object/" + u.bucket + "/" + escapeKey(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, src)
	if err != nil {
		return "", fmt.Errorf("storage: build request: %w", err)
	}
	if file.Size > 0 {
		req.ContentLength = file.Size
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = staging.ContentTypeFor(file.Name)
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	u.logger.Debug("storage: uploaded", "key", key, "bytes", file.Size)
	return u.PublicURL(key), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
