package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

type partKind int

const (
	partField partKind = iota
	partJSON
	partFile
)

type part struct {
	kind  partKind
	name  string
	value string
	json  any
	file  staging.FileRef
}

// RequestBuilder accumulates named multipart parts (plain fields, JSON
// encoded sub-objects and files) and serializes them once.
type RequestBuilder struct {
	parts []part
	names map[string]struct{}
	err   error
}

// NewRequestBuilder returns an empty builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{names: make(map[string]struct{})}
}

func (b *RequestBuilder) add(p part) *RequestBuilder {
	if b.err != nil {
		return b
	}
	p.name = strings.TrimSpace(p.name)
	if p.name == "" {
		b.err = fmt.Errorf("client: multipart part name is required")
		return b
	}
	if _, dup := b.names[p.name]; dup {
		b.err = fmt.Errorf("client: duplicate multipart part %q", p.name)
		return b
	}
	b.names[p.name] = struct{}{}
	b.parts = append(b.parts, p)
	return b
}

// Field adds a plain text part.
func (b *RequestBuilder) Field(name, value string) *RequestBuilder {
	return b.add(part{kind: partField, name: name, value: value})
}

// JSON adds a part whose value is the JSON encoding of v.
func (b *RequestBuilder) JSON(name string, v any) *RequestBuilder {
	return b.add(part{kind: partJSON, name: name, json: v})
}

// File adds a file part. Nil files are skipped so optional slots can be
// passed through unconditionally.
func (b *RequestBuilder) File(name string, file *staging.FileRef) *RequestBuilder {
	if file == nil {
		return b
	}
	return b.add(part{kind: partFile, name: name, file: *file})
}

// Names lists part names in insertion order.
func (b *RequestBuilder) Names() []string {
	out := make([]string, len(b.parts))
	for i, p := range b.parts {
		out[i] = p.name
	}
	return out
}

// Build serializes every part. The body is buffered so a failed request can
// be rebuilt and retried.
func (b *RequestBuilder) Build() (io.Reader, string, error) {
	if b.err != nil {
		return nil, "", b.err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range b.parts {
		switch p.kind {
		case partField:
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("client: write field %s: %w", p.name, err)
			}
		case partJSON:
			data, err := json.Marshal(p.json)
			if err != nil {
				return nil, "", fmt.Errorf("client: encode part %s: %w", p.name, err)
			}
			if err := w.WriteField(p.name, string(data)); err != nil {
				return nil, "", fmt.Errorf("client: write part %s: %w", p.name, err)
			}
		case partFile:
			if err := writeFile(w, p); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, p part) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(p.name), escapeQuotes(p.file.Name)))
	contentType := p.file.ContentType
	if contentType == "" {
		contentType = staging.ContentTypeFor(p.file.Name)
	}
	header.Set("Content-Type", contentType)

	dst, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("client: create file part %s: %w", p.name, err)
	}
	src, err := p.file.Open()
	if err != nil {
		return fmt.Errorf("client: open %s: %w", p.file.Name, err)
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("client: copy %s: %w", p.file.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
