package staging

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxSize mirrors the backend upload limit (5 MiB).
const DefaultMaxSize int64 = 5 << 20

// DefaultAllowedExtensions lists the document types accepted by the backend.
var DefaultAllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

// FileRef points at a local file selected for a slot. The file is not read
// until an uploader opens it.
type FileRef struct {
	Slot        string `json:"slot"`
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`

	open func() (io.ReadCloser, error)
}

// NewFileRef builds a reference backed by an arbitrary opener. Tests and
// in-memory callers use it in place of a path on disk.
func NewFileRef(name string, size int64, open func() (io.ReadCloser, error)) FileRef {
	return FileRef{
		Name:        strings.TrimSpace(name),
		Size:        size,
		ContentType: ContentTypeFor(name),
		open:        open,
	}
}

// FromPath stats a local file and returns a reference to it.
func FromPath(path string) (FileRef, error) {
	clean := filepath.Clean(strings.TrimSpace(path))
	info, err := os.Stat(clean)
	if err != nil {
		return FileRef{}, fmt.Errorf("staging: stat %s: %w", clean, err)
	}
	if info.IsDir() {
		return FileRef{}, fmt.Errorf("staging: %s is a directory", clean)
	}
	return FileRef{
		Name:        filepath.Base(clean),
		Path:        clean,
		Size:        info.Size(),
		ContentType: ContentTypeFor(clean),
	}, nil
}

// Open returns a reader over the file contents.
func (f FileRef) Open() (io.ReadCloser, error) {
	if f.open != nil {
		return f.open()
	}
	if f.Path == "" {
		return nil, fmt.Errorf("staging: file %q has no source", f.Name)
	}
	return os.Open(f.Path)
}

// Ext returns the lowercased extension including the dot.
func (f FileRef) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// RejectionError reports a file that failed the size or type checks. It is
// surfaced as a field error on the step that owns the slot.
type RejectionError struct {
	Slot   string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("staging: %s rejected: %s", e.Slot, e.Reason)
}

// Option configures a Stager.
type Option func(*Stager)

// WithMaxSize overrides the per-file size limit. Non-positive values keep the
// default.
func WithMaxSize(size int64) Option {
	return func(s *Stager) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithAllowedExtensions overrides the accepted extensions.
func WithAllowedExtensions(exts ...string) Option {
	return func(s *Stager) {
		if len(exts) == 0 {
			return
		}
		s.allowed = normalizeExtensions(exts)
	}
}

// Stager binds file references to named slots without uploading them.
type Stager struct {
	maxSize int64
	allowed map[string]struct{}
	slots   map[string]*FileRef
}

// New constructs a Stager with the backend defaults.
func New(options ...Option) *Stager {
	s := &Stager{
		maxSize: DefaultMaxSize,
		allowed: normalizeExtensions(DefaultAllowedExtensions),
		slots:   make(map[string]*FileRef),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Stage checks the file against the limits and binds it to slot. On
// rejection the previous binding for the slot is left untouched.
func (s *Stager) Stage(slot string, file FileRef) error {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return fmt.Errorf("staging: slot name is required")
	}
	if reason := s.check(file); reason != "" {
		return &RejectionError{Slot: slot, Reason: reason}
	}
	file.Slot = slot
	s.slots[slot] = &file
	return nil
}

// StageFile stats path and stages the result.
func (s *Stager) StageFile(slot, path string) error {
	ref, err := FromPath(path)
	if err != nil {
		return err
	}
	return s.Stage(slot, ref)
}

// Unstage clears a slot.
func (s *Stager) Unstage(slot string) {
	delete(s.slots, strings.TrimSpace(slot))
}

// Get returns the file bound to slot, or nil.
func (s *Stager) Get(slot string) *FileRef {
	ref, ok := s.slots[strings.TrimSpace(slot)]
	if !ok || ref == nil {
		return nil
	}
	out := *ref
	return &out
}

// Staged returns a copy of the slot to file mapping.
func (s *Stager) Staged() map[string]*FileRef {
	out := make(map[string]*FileRef, len(s.slots))
	for slot, ref := range s.slots {
		if ref == nil {
			continue
		}
		clone := *ref
		out[slot] = &clone
	}
	return out
}

// Slots lists staged slot names in sorted order.
func (s *Stager) Slots() []string {
	names := make([]string, 0, len(s.slots))
	for slot, ref := range s.slots {
		if ref != nil {
			names = append(names, slot)
		}
	}
	sort.Strings(names)
	return names
}

// MaxSize reports the configured per-file limit.
func (s *Stager) MaxSize() int64 {
	return s.maxSize
}

func (s *Stager) check(file FileRef) string {
	if strings.TrimSpace(file.Name) == "" {
		return "file name is missing"
	}
	if _, ok := s.allowed[file.Ext()]; !ok {
		return fmt.Sprintf("unsupported file type %q (allowed: %s)", file.Ext(), s.allowedList())
	}
	if file.Size > s.maxSize {
		return fmt.Sprintf("file is larger than %s", humanSize(s.maxSize))
	}
	return ""
}

func (s *Stager) allowedList() string {
	exts := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.ToUpper(strings.Join(exts, ", "))
}

func normalizeExtensions(exts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}

func humanSize(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
