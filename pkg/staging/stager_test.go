package staging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func memFile(name string, size int64) FileRef {
	return NewFileRef(name, size, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("data")), nil
	})
}

func TestStageAcceptsAllowedTypes(t *testing.T) {
	s := New()
	for _, name := range []string{"id.pdf", "scan.JPG", "photo.jpeg", "doc.png"} {
		if err := s.Stage("idDocument", memFile(name, 1024)); err != nil {
			t.Fatalf("stage %s: %v", name, err)
		}
	}
	got := s.Get("idDocument")
	if got == nil || got.Name != "doc.png" {
		t.Fatalf("expected last staged file to win, got %+v", got)
	}
	if got.Slot != "idDocument" {
		t.Fatalf("expected slot to be recorded, got %q", got.Slot)
	}
}

func TestStageRejectsTypeAndSize(t *testing.T) {
	s := New(WithMaxSize(2 << 20))

	err := s.Stage("proofOfIncome", memFile("payslip.docx", 10))
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if !strings.Contains(rejection.Reason, "unsupported file type") {
		t.Fatalf("unexpected reason %q", rejection.Reason)
	}

	err = s.Stage("proofOfIncome", memFile("payslip.pdf", 3<<20))
	if !errors.As(err, &rejection) || !strings.Contains(rejection.Reason, "2MB") {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if s.Get("proofOfIncome") != nil {
		t.Fatalf("rejected file must not be staged")
	}
}

func TestRejectionKeepsPreviousBinding(t *testing.T) {
	s := New()
	if err := s.Stage("idDocument", memFile("passport.pdf", 100)); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := s.Stage("idDocument", memFile("passport.exe", 100)); err == nil {
		t.Fatalf("expected rejection")
	}
	if got := s.Get("idDocument"); got == nil || got.Name != "passport.pdf" {
		t.Fatalf("expected original binding, got %+v", got)
	}
}

func TestStagedReturnsDetachedCopy(t *testing.T) {
	s := New()
	_ = s.Stage("idDocument", memFile("a.pdf", 1))
	_ = s.Stage("bankStatement", memFile("b.png", 2))

	staged := s.Staged()
	staged["idDocument"].Name = "mutated.pdf"
	delete(staged, "bankStatement")

	if diff := cmp.Diff([]string{"bankStatement", "idDocument"}, s.Slots()); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
	if s.Get("idDocument").Name != "a.pdf" {
		t.Fatalf("Staged must not expose internal references")
	}
}

func TestStageFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := New()
	if err := s.StageFile("idDocument", path); err != nil {
		t.Fatalf("stage file: %v", err)
	}
	ref := s.Get("idDocument")
	if ref.ContentType != "application/pdf" || ref.Size != 8 {
		t.Fatalf("unexpected ref %+v", ref)
	}

	rc, err := ref.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := s.StageFile("proofOfIncome", filepath.Join(dir, "missing.pdf")); err == nil {
		t.Fatalf("expected stat error for missing file")
	}
}
