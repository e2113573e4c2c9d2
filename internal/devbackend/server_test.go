package devbackend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/flows"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/storage"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

type harness struct {
	backend *Server
	srv     *httptest.Server
	api     *client.Client
}

func newHarness(t *testing.T, options ...Option) *harness {
	t.Helper()
	backend := New(append([]Option{WithBcryptCost(bcrypt.MinCost)}, options...)...)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	api, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return &harness{backend: backend, srv: srv, api: api}
}

func (h *harness) register(t *testing.T, email, userType string) *client.AuthResponse {
	t.Helper()
	resp, err := h.api.Auth.Register(context.Background(), client.RegisterRequest{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Ada",
		LastName:  "Obi",
		Phone:     "+2348030000000",
		UserType:  userType,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp
}

func (h *harness) uploader(t *testing.T) storage.Uploader {
	t.Helper()
	up, err := storage.NewHTTPUploader(h.srv.URL, DefaultBucket, storage.WithHTTPClient(h.srv.Client()))
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	return up
}

func memFile(name, body string) *staging.FileRef {
	ref := staging.NewFileRef(name, int64(len(body)), func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	})
	return &ref
}

func TestRegisterLoginAndMe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg := h.register(t, "Ada@Example.com", "tenant")
	if reg.AccessToken == "" || reg.User.Email != "ada@example.com" {
		t.Fatalf("register response = %+v", reg)
	}

	h.api.Auth.Logout()
	if _, err := h.api.Auth.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected 401 for bad password, got %v", err)
	}
	if h.api.Session().Authenticated() {
		t.Fatalf("failed login must not authenticate")
	}

	if _, err := h.api.Auth.Login(ctx, "ada@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}
	me, err := h.api.Auth.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != reg.User.ID || me.FullName() != "Ada Obi" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada@example.com", "tenant")

	_, err := h.api.Auth.Register(context.Background(), client.RegisterRequest{Email: "ada@example.com", Password: "s3cret-pass", FirstName: "A", LastName: "B", UserType: "tenant"})
	if client.Message(err) != "Email already registered" {
		t.Fatalf("duplicate email message = %q", client.Message(err))
	}

	_, err = h.api.Auth.Register(context.Background(), client.RegisterRequest{Email: "not-an-email", Password: "short", FirstName: "A", LastName: "B", UserType: "agent"})
	fields, form := client.FieldErrors(err, []string{"email", "password", "userType"})
	want := map[string]string{
		"email":    "value is not a valid email address",
		"password": "Password must be at least 8 characters",
		"userType": "user_type must be tenant or landlord",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if len(form) != 0 {
		t.Fatalf("unexpected form errors: %v", form)
	}
}

func tenantController(t *testing.T, sub wizard.Submitter) *wizard.Controller {
	t.Helper()
	def, err := flows.Load(flows.TenantProfile)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctrl, err := wizard.NewController(def.Flow, wizard.NewStore(), wizard.WithSubmitter(sub))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	values := map[string]any{
		"budget":            "500000",
		"preferredLocation": "Lekki Phase 1",
		"bedrooms":          "2",
		"referenceEmail1":   "ref@example.com",
		"rentCreditOptIn":   true,
		"agreeToTerms":      true,
	}
	for name, v := range values {
		if err := ctrl.SetField(name, v); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	if err := ctrl.SetFile("idDocument", memFile("passport.pdf", "%PDF-1.4")); err != nil {
		t.Fatalf("stage: %v", err)
	}
	return ctrl
}

func advance(t *testing.T, ctrl *wizard.Controller) wizard.Move {
	t.Helper()
	var move wizard.Move
	for i := 0; i < len(ctrl.Steps()); i++ {
		var err error
		move, err = ctrl.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if move != wizard.MoveAdvanced {
			return move
		}
	}
	return move
}

func TestTenantProfileEndToEnd(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "tenant@example.com", "tenant")

	def, _ := flows.Load(flows.TenantProfile)
	orch, err := def.Orchestrator(flows.TenantProfileCreator(h.api),
		submission.WithUploader(h.uploader(t), func() string { return reg.User.ID }),
	)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	h.backend.FailNext(FaultUploads, 1)
	ctrl := tenantController(t, orch.AsSubmitter())

	if move := advance(t, ctrl); move != wizard.MoveSubmitFailed {
		t.Fatalf("first attempt move = %v, want submit failed", move)
	}
	first := orch.History()[0]
	if first.Stage != submission.StageUpload || !first.Failed() {
		t.Fatalf("first attempt = %+v", first)
	}
	if ctrl.Store().Staged()["idDocument"] == nil {
		t.Fatalf("staged document must survive a failed upload")
	}

	move, err := ctrl.Next(context.Background())
	if err != nil || move != wizard.MoveSubmitted {
		t.Fatalf("retry move = %v err = %v", move, err)
	}

	objects := h.backend.Objects()
	if len(objects) != 1 || !strings.HasPrefix(objects[0], reg.User.ID+"/") || !strings.HasSuffix(objects[0], ".pdf") {
		t.Fatalf("objects = %v", objects)
	}
	profile, ok := h.backend.Profile(reg.User.ID)
	if !ok {
		t.Fatalf("profile not stored")
	}
	docs := profile["documents"].(map[string]any)
	if url, _ := docs["id_document"].(string); !strings.HasSuffix(url, objects[0]) {
		t.Fatalf("id_document url = %v", docs["id_document"])
	}

	status, err := h.api.Tenants.ProfileStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := &client.ProfileStatus{
		ProfileCompletion:   83,
		OnboardingCompleted: true,
		TrustScore:          75,
		VerificationStatus:  "pending",
		MissingFields:       []string{"proof_of_income"},
		CanApply:            true,
	}
	if diff := cmp.Diff(want, status); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestRentalApplicationEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.register(t, "applicant@example.com", "tenant")

	def, _ := flows.Load(flows.RentalApplication)
	orch, err := def.Orchestrator(flows.ApplicationCreator(h.api, def.SlotAliases))
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	store := wizard.NewStore(wizard.WithValues(map[string]any{
		flows.FieldPropertyID: "prop-lekki-2br",
		"firstName":           "Ada",
		"lastName":            "Obi",
		"email":               "ada@example.com",
		"phone":               "+234 803 000 0000",
		"currentAddress":      "12 Admiralty Way",
		"employmentStatus":    "employed",
		"employerName":        "Acme",
		"jobTitle":            "Engineer",
		"monthlyIncome":       "850000",
		"referenceName":       "Tunde",
		"referencePhone":      "08030000001",
		"agreeToTerms":        true,
	}))
	ctrl, err := wizard.NewController(def.Flow, store, wizard.WithSubmitter(orch.AsSubmitter()))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	_ = ctrl.SetFile("idDocument", memFile("id.png", "png"))
	_ = ctrl.SetFile("proofOfIncome", memFile("payslip.pdf", "%PDF"))

	if move := advance(t, ctrl); move != wizard.MoveSubmitted {
		t.Fatalf("move = %v, outcome = %+v", move, ctrl.LastOutcome())
	}

	apps := h.backend.Applications()
	if len(apps) != 1 {
		t.Fatalf("applications = %d", len(apps))
	}
	app := apps[0]
	if app.PropertyID != "prop-lekki-2br" || app.PersonalInfo["first_name"] != "Ada" {
		t.Fatalf("application = %+v", app)
	}
	if len(app.Documents) != 2 || app.Documents["id_document"] == nil || app.Documents["proof_of_income"] == nil {
		t.Fatalf("documents = %v", app.Documents)
	}

	listed, err := h.api.Applications.List(context.Background())
	if err != nil || len(listed) != 1 || listed[0].ID != app.ID {
		t.Fatalf("list = %v err = %v", listed, err)
	}
}

func TestCreateFaultKeepsWizardRetryable(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "retry@example.com", "tenant")

	def, _ := flows.Load(flows.TenantProfile)
	orch, _ := def.Orchestrator(flows.TenantProfileCreator(h.api),
		submission.WithUploader(h.uploader(t), func() string { return reg.User.ID }),
	)
	h.backend.FailNext(FaultCreates, 1)
	ctrl := tenantController(t, orch.AsSubmitter())

	if move := advance(t, ctrl); move != wizard.MoveSubmitFailed {
		t.Fatalf("move = %v", move)
	}
	if got := ctrl.LastOutcome().Reason; got != "Service temporarily unavailable" {
		t.Fatalf("reason = %q", got)
	}
	if ctrl.Store().Snapshot().String("budget") != "500000" {
		t.Fatalf("answers must survive a failed create")
	}
	if move, _ := ctrl.Next(context.Background()); move != wizard.MoveSubmitted {
		t.Fatalf("retry move = %v", move)
	}
}

func TestExpiredSessionInvalidatesClient(t *testing.T) {
	h := newHarness(t)
	h.register(t, "expired@example.com", "tenant")

	var events []client.EventKind
	h.api.Session().Subscribe(func(evt client.Event) { events = append(events, evt.Kind) })
	h.backend.ExpireSessions()

	_, err := h.api.Tenants.ProfileStatus(context.Background())
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if h.api.Session().Authenticated() {
		t.Fatalf("session should be cleared")
	}
	if diff := cmp.Diff([]client.EventKind{client.EventInvalidated}, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPropertiesAndFavorites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	lagos, err := h.api.Properties.List(ctx, client.PropertyQuery{Location: "lagos", MinPrice: 100000, Bedrooms: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, p := range lagos {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"prop-lekki-2br", "prop-ikoyi-4br"}, ids); diff != "" {
		t.Fatalf("filtered ids mismatch (-want +got):\n%s", diff)
	}

	page, _ := h.api.Properties.List(ctx, client.PropertyQuery{Page: 2, Limit: 2})
	if len(page) != 2 || page[0].ID != "prop-ikoyi-4br" {
		t.Fatalf("page 2 = %v", page)
	}

	if _, err := h.api.Properties.Get(ctx, "missing"); client.Message(err) != "Property not found" {
		t.Fatalf("missing property message = %q", client.Message(err))
	}

	if _, err := h.api.Favorites.Add(ctx, "prop-yaba-1br"); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("anonymous favorite should be rejected, got %v", err)
	}
	h.register(t, "fav@example.com", "tenant")
	fav, err := h.api.Favorites.Add(ctx, "prop-yaba-1br")
	if err != nil || fav.Property == nil || fav.Property.Title != "Mini flat near the tech hub" {
		t.Fatalf("add favorite = %+v err = %v", fav, err)
	}
	favs, _ := h.api.Favorites.List(ctx)
	if len(favs) != 1 {
		t.Fatalf("favorites = %v", favs)
	}
	if err := h.api.Favorites.Remove(ctx, "prop-yaba-1br"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := h.api.Favorites.Remove(ctx, "prop-yaba-1br"); client.Message(err) != "Favorite not found" {
		t.Fatalf("second remove message = %q", client.Message(err))
	}
}

func TestStorageRejectsWrongKeyAndBucket(t *testing.T) {
	h := newHarness(t, WithStorageKey("service-key"))

	up, _ := storage.NewHTTPUploader(h.srv.URL, DefaultBucket, storage.WithHTTPClient(h.srv.Client()), storage.WithAPIKey("wrong"))
	_, err := up.Upload(context.Background(), "u1/doc.pdf", *memFile("doc.pdf", "%PDF"))
	var statusErr *storage.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}

	other, _ := storage.NewHTTPUploader(h.srv.URL, "other", storage.WithHTTPClient(h.srv.Client()), storage.WithAPIKey("service-key"))
	if _, err := other.Upload(context.Background(), "u1/doc.pdf", *memFile("doc.pdf", "%PDF")); !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}

	good, _ := storage.NewHTTPUploader(h.srv.URL, DefaultBucket, storage.WithHTTPClient(h.srv.Client()), storage.WithAPIKey("service-key"))
	publicURL, err := good.Upload(context.Background(), "u1/doc.pdf", *memFile("doc.pdf", "%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp, err := h.srv.Client().Get(publicURL)
	if err != nil {
		t.Fatalf("get public: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "%PDF" {
		t.Fatalf("public object = %d %q", resp.StatusCode, body)
	}
}

func TestLocationSuggestions(t *testing.T) {
	h := newHarness(t)
	got, err := h.api.Locations.Suggest(context.Background(), "lekki", 1)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	want := []client.Location{{Value: "Lekki Phase 1, Lagos", Label: "Lekki Phase 1, Lagos", City: "Lagos"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}

	none, err := h.api.Locations.Suggest(context.Background(), "  ", 5)
	if err != nil || none != nil {
		t.Fatalf("blank input should short-circuit, got %v %v", none, err)
	}
}
