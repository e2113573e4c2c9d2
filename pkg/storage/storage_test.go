package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

func memFile(name, content string) staging.FileRef {
	return staging.NewFileRef(name, int64(len(content)), func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	})
}

func TestKeyLayout(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	key := Key("user 42", "idDocument", "Passport.PDF", now)

	pattern := regexp.MustCompile(`^user_42/1700000000123-idDocument-[0-9a-f-]{36}\.pdf$`)
	if !pattern.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if err := CheckKey(key); err != nil {
		t.Fatalf("generated key rejected: %v", err)
	}
	if Key("", "x", "a.png", now) == Key("", "x", "a.png", now) {
		t.Fatalf("keys for the same input must differ")
	}
}

func TestCheckKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "/abs/key", "a/../b", "a//b", "./a"} {
		if err := CheckKey(key); err == nil {
			t.Errorf("CheckKey(%q) = nil, want error", key)
		}
	}
}

func TestHTTPUploaderPostsAndReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewHTTPUploader(srv.URL, "documents", WithHTTPClient(srv.Client()), WithAPIKey("svc"))
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	publicURL, err := up.Upload(context.Background(), "u1/1-idDocument-x.pdf", memFile("id.pdf", "%PDF-1.7"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if gotPath != "/storage/v1/object/documents/u1/1-idDocument-x.pdf" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer svc" || gotType != "application/pdf" || gotBody != "%PDF-1.7" {
		t.Errorf("auth=%q type=%q body=%q", gotAuth, gotType, gotBody)
	}
	if want := srv.URL + "/storage/v1/object/public/documents/u1/1-idDocument-x.pdf"; publicURL != want {
		t.Errorf("public url = %q, want %q", publicURL, want)
	}
}

func TestHTTPUploaderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket quota exceeded", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	up, _ := NewHTTPUploader(srv.URL, "documents", WithHTTPClient(srv.Client()))
	_, err := up.Upload(context.Background(), "u1/k.pdf", memFile("k.pdf", "x"))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusInsufficientStorage || !strings.Contains(statusErr.Error(), "quota") {
		t.Fatalf("unexpected error %v", statusErr)
	}
}

func TestDirUploaderWritesFile(t *testing.T) {
	root := t.TempDir()
	up, err := NewDirUploader(root)
	if err != nil {
		t.Fatalf("new dir uploader: %v", err)
	}
	got, err := up.Upload(context.Background(), "u1/1-proof.png", memFile("proof.png", "png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(got, "file://") {
		t.Fatalf("url = %q", got)
	}
	data, err := os.ReadFile(filepath.Join(root, "u1", "1-proof.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("content = %q", data)
	}
}
