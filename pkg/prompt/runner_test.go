package prompt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/flows"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/storage"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	return s.Input(ctx, cfg)
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	return s.Input(ctx, InputConfig{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help})
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) sawInfo(substr string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// tenantScript answers every prompt of the tenant profile flow and submits.
func tenantScript(idPath string) *stubDriver {
	return &stubDriver{
		inputs: []string{
			"500000", "Lekki Phase 1, Lagos", "", // budget, location, move-in
			idPath, "", // idDocument, proofOfIncome
			"ref@example.com", "", // references
		},
		// bedrooms "2", Next, Next, Submit
		selectIdx: []int{1, 0, 0, 0},
		confirm:   []bool{true, true},
	}
}

func newTenantController(t *testing.T, sub wizard.Submitter) *wizard.Controller {
	t.Helper()
	def, err := flows.Load(flows.TenantProfile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctrl, err := wizard.NewController(def.Flow, wizard.NewStore(), wizard.WithSubmitter(sub))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return ctrl
}

func TestRunnerCompletesTenantProfile(t *testing.T) {
	var got wizard.Snapshot
	var gotStaged map[string]*staging.FileRef
	sub := wizard.SubmitterFunc(func(ctx context.Context, s wizard.Snapshot, staged map[string]*staging.FileRef) wizard.Outcome {
		got, gotStaged = s, staged
		return wizard.Outcome{Submitted: true, Detail: "ok"}
	})
	ctrl := newTenantController(t, sub)
	driver := tenantScript(writeFile(t, "passport.pdf", "%PDF"))

	r, err := NewRunner(ctrl, WithPromptDriver(driver), WithStyles(PlainStyles()))
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	outcome, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Submitted || outcome.Detail != "ok" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if got.String("budget") != "500000" || got.String("bedrooms") != "2" || !got.Bool("agreeToTerms") {
		t.Fatalf("submitted snapshot = %v", got)
	}
	if gotStaged["idDocument"] == nil || gotStaged["idDocument"].Name != "passport.pdf" {
		t.Fatalf("staged = %v", gotStaged)
	}
	if !driver.sawInfo("Step 3 of 3: References and review") {
		t.Fatalf("missing review header in %v", driver.infoMessages)
	}
	if !driver.sawInfo("Lekki Phase 1, Lagos") || !driver.sawInfo("passport.pdf") {
		t.Fatalf("summary did not list answers: %v", driver.infoMessages)
	}
}

func TestRunnerShowsErrorsAndCancels(t *testing.T) {
	ctrl := newTenantController(t, nil)
	driver := &stubDriver{
		inputs: []string{
			"-500", "Lekki", "",
			"", "", "",
		},
		// bedrooms, Next (rejected), bedrooms, Cancel
		selectIdx: []int{1, 0, 1, 1},
	}
	r, _ := NewRunner(ctrl, WithPromptDriver(driver), WithStyles(PlainStyles()))

	_, err := r.Run(context.Background())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if !driver.sawInfo("Please enter a valid budget") {
		t.Fatalf("validation message not shown: %v", driver.infoMessages)
	}
	if ctrl.Index() != 1 {
		t.Fatalf("index = %d, want 1", ctrl.Index())
	}
}

func TestRunnerRejectsUnsupportedFile(t *testing.T) {
	ctrl := newTenantController(t, nil)
	if err := ctrl.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	driver := &stubDriver{
		inputs: []string{
			writeFile(t, "id.exe", "MZ"), writeFile(t, "id.png", "png"), // rejected, then accepted
			"",
		},
		selectIdx: []int{2}, // Cancel
	}
	r, _ := NewRunner(ctrl, WithPromptDriver(driver), WithStyles(PlainStyles()))
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if !driver.sawInfo("unsupported file type") {
		t.Fatalf("rejection not shown: %v", driver.infoMessages)
	}
	if ref := ctrl.Store().Staged()["idDocument"]; ref == nil || ref.Name != "id.png" {
		t.Fatalf("staged = %v", ref)
	}
}

// A 401 during submission clears the session and abandons the wizard; the
// answers are not kept.
func TestUnauthorizedSubmissionAbandonsWizard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	session, _ := client.NewSession(nil)
	_ = session.Set("expired-token", &client.User{ID: "u1"})
	api, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()), client.WithSession(session))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	uploader, err := storage.NewDirUploader(t.TempDir())
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}

	def, _ := flows.Load(flows.TenantProfile)
	var out bytes.Buffer
	notifier := NewNotifier(&out, PlainStyles())
	orch, err := def.Orchestrator(flows.TenantProfileCreator(api),
		submission.WithUploader(uploader, func() string { return "u1" }),
		submission.WithNotifier(notifier),
		submission.WithNavigator(notifier, def.Flow.Route),
	)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	ctrl := newTenantController(t, orch.AsSubmitter())
	driver := tenantScript(writeFile(t, "passport.pdf", "%PDF"))
	r, _ := NewRunner(ctrl, WithPromptDriver(driver), WithStyles(PlainStyles()))

	unsubscribe := session.Subscribe(func(evt client.Event) {
		if evt.Kind == client.EventInvalidated {
			orch.Close()
			r.Abandon(client.ErrUnauthorized)
		}
	})
	defer unsubscribe()

	_, err = r.Run(context.Background())
	if !errors.Is(err, ErrAbandoned) || !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected abandonment after 401, got %v", err)
	}
	if session.Authenticated() {
		t.Fatalf("session should be cleared")
	}
	if !ctrl.Store().Closed() {
		t.Fatalf("store should be torn down")
	}
	if err := ctrl.SetField("budget", "1"); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("expected ErrClosed after abandonment, got %v", err)
	}
	if notifier.Route() != "" {
		t.Fatalf("abandoned wizard must not navigate")
	}
}

type recordingDriver struct {
	*stubDriver
	suggest func(string) []string
}

func (d *recordingDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if cfg.Suggest != nil {
		d.suggest = cfg.Suggest
	}
	return d.stubDriver.Input(ctx, cfg)
}

func TestRunnerWiresSuggesters(t *testing.T) {
	ctrl := newTenantController(t, nil)
	driver := &recordingDriver{stubDriver: &stubDriver{
		inputs:    []string{"500000", "Lek", ""},
		selectIdx: []int{1, 1}, // bedrooms, Cancel
	}}
	var asked []string
	r, _ := NewRunner(ctrl,
		WithPromptDriver(driver),
		WithStyles(PlainStyles()),
		WithSuggester("locations", func(_ context.Context, partial string) []string {
			asked = append(asked, partial)
			return []string{"Lekki Phase 1, Lagos"}
		}),
	)
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if driver.suggest == nil {
		t.Fatalf("location field should receive a suggester")
	}
	if got := driver.suggest("Lek"); len(got) != 1 || got[0] != "Lekki Phase 1, Lagos" || asked[0] != "Lek" {
		t.Fatalf("suggest = %v asked = %v", got, asked)
	}
}
