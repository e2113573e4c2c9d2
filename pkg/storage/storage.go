// Package storage uploads staged documents to object storage and returns the
// public URL that gets embedded in submission payloads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

// Uploader stores one file under key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, file staging.FileRef) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, key string, file staging.FileRef) (string, error)

// Upload implements Uploader.
func (fn UploaderFunc) Upload(ctx context.Context, key string, file staging.FileRef) (string, error) {
	return fn(ctx, key, file)
}

var (
	// ErrEmptyKey is returned when an upload key is blank.
	ErrEmptyKey = errors.New("storage: key is required")
	// ErrInvalidKey is returned for keys that escape their namespace.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Key builds the object key for a staged document:
// <userID>/<unix-millis>-<slot>-<uuid><ext>.
func Key(userID, slot, filename string, now time.Time) string {
	owner := sanitizeSegment(userID)
	if owner == "" {
		owner = "anonymous"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + sanitizeSegment(slot) + "-" + uuid.NewString() + ext
	return owner + "/" + name
}

// CheckKey rejects blank keys and keys with traversal segments.
func CheckKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
