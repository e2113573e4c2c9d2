package flows

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-rentflow/pkg/contract"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

func mustLoad(t *testing.T, name string) *Definition {
	t.Helper()
	def, err := Load(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return def
}

func stepByID(t *testing.T, def *Definition, id string) wizard.Step {
	t.Helper()
	for _, step := range def.Flow.Steps {
		if step.ID == id {
			return step
		}
	}
	t.Fatalf("flow %s has no step %q", def.Flow.Name, id)
	return wizard.Step{}
}

func file(name string) *staging.FileRef {
	ref := staging.NewFileRef(name, 4, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("data")), nil
	})
	return &ref
}

func TestBuiltinFlowsLoad(t *testing.T) {
	want := map[string]int{TenantProfile: 3, RentalApplication: 5, Signup: 3}
	for _, name := range Names() {
		def := mustLoad(t, name)
		if got := len(def.Flow.Steps); got != want[name] {
			t.Errorf("%s: %d steps, want %d", name, got, want[name])
		}
	}
	if _, err := Load("nope"); err == nil {
		t.Fatalf("expected unknown flow error")
	}
}

func TestNegativeBudgetBlocksPreferences(t *testing.T) {
	def := mustLoad(t, TenantProfile)
	store := wizard.NewStore(wizard.WithValues(map[string]any{
		"budget":            "-500",
		"preferredLocation": "Lekki Phase 1, Lagos",
		"bedrooms":          "2",
	}))
	ctrl, err := wizard.NewController(def.Flow, store)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	got := stepByID(t, def, "preferences").Validate(store.Snapshot(), nil)
	if diff := cmp.Diff(wizard.ErrorMap{"budget": "Please enter a valid budget"}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 3; i++ {
		if move, _ := ctrl.Next(context.Background()); move != wizard.MoveNone {
			t.Fatalf("attempt %d moved: %v", i, move)
		}
	}
	if ctrl.Index() != 1 {
		t.Fatalf("index = %d, want 1", ctrl.Index())
	}
}

func TestValidPreferencesAdvance(t *testing.T) {
	def := mustLoad(t, TenantProfile)
	store := wizard.NewStore(wizard.WithValues(map[string]any{
		"budget":            "500000",
		"preferredLocation": "Lekki Phase 1, Lagos",
		"bedrooms":          "2",
	}))
	ctrl, err := wizard.NewController(def.Flow, store)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	if got := stepByID(t, def, "preferences").Validate(store.Snapshot(), nil); !got.Empty() {
		t.Fatalf("unexpected errors %v", got)
	}
	move, err := ctrl.Next(context.Background())
	if err != nil || move != wizard.MoveAdvanced || ctrl.Index() != 2 {
		t.Fatalf("move=%v err=%v index=%d", move, err, ctrl.Index())
	}
}

func TestMissingIDDocument(t *testing.T) {
	def := mustLoad(t, TenantProfile)
	got := stepByID(t, def, "documents").Validate(wizard.Snapshot{}, map[string]*staging.FileRef{})
	if diff := cmp.Diff(wizard.ErrorMap{"idDocument": "Valid ID is required"}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	got = stepByID(t, def, "documents").Validate(wizard.Snapshot{}, map[string]*staging.FileRef{"idDocument": file("id.pdf")})
	if !got.Empty() {
		t.Fatalf("unexpected errors %v", got)
	}
}

func TestTermsRequiredOnReview(t *testing.T) {
	def := mustLoad(t, TenantProfile)
	snap := wizard.Snapshot{
		"budget":            "500000",
		"preferredLocation": "Ikoyi",
		"bedrooms":          "3",
		"referenceEmail1":   "ref@example.com",
		"rentCreditOptIn":   true,
		"agreeToTerms":      false,
	}
	got := stepByID(t, def, "review").Validate(snap, map[string]*staging.FileRef{"idDocument": file("id.pdf")})
	if diff := cmp.Diff(wizard.ErrorMap{"agreeToTerms": "You must agree to the terms"}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	snap["referenceEmail2"] = "not-an-email"
	snap["agreeToTerms"] = true
	got = stepByID(t, def, "review").Validate(snap, nil)
	if diff := cmp.Diff(wizard.ErrorMap{"referenceEmail2": MsgReferenceEmail}, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestLandlordSignupSkipsPreferences(t *testing.T) {
	def := mustLoad(t, Signup)
	var submitted int
	sub := wizard.SubmitterFunc(func(ctx context.Context, s wizard.Snapshot, staged map[string]*staging.FileRef) wizard.Outcome {
		submitted++
		return wizard.Outcome{Submitted: true}
	})
	store := wizard.NewStore(wizard.WithValues(map[string]any{
		"firstName":       "Ngozi",
		"lastName":        "Okafor",
		"email":           "ngozi@example.com",
		"password":        "correct-horse",
		"confirmPassword": "correct-horse",
	}))
	ctrl, err := wizard.NewController(def.Flow, store, wizard.WithSubmitter(sub))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	if len(ctrl.Steps()) != 3 {
		t.Fatalf("initial steps = %d, want 3", len(ctrl.Steps()))
	}
	if move, _ := ctrl.Next(context.Background()); move != wizard.MoveAdvanced {
		t.Fatalf("account step did not advance: %v (%v)", move, store.Errors())
	}
	if err := ctrl.SetField("userType", "landlord"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(ctrl.Steps()) != 2 {
		t.Fatalf("landlord steps = %d, want 2", len(ctrl.Steps()))
	}

	move, err := ctrl.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if move != wizard.MoveSubmitted || submitted != 1 || ctrl.Index() != 2 {
		t.Fatalf("move=%v submitted=%d index=%d", move, submitted, ctrl.Index())
	}
}

func TestEmploymentDetailsOnlyWhenEmployed(t *testing.T) {
	def := mustLoad(t, RentalApplication)
	step := stepByID(t, def, "employment")

	got := step.Validate(wizard.Snapshot{"employmentStatus": "student"}, nil)
	if !got.Empty() {
		t.Fatalf("student should not need employer details: %v", got)
	}

	got = step.Validate(wizard.Snapshot{"employmentStatus": "employed", "monthlyIncome": "abc"}, nil)
	want := wizard.ErrorMap{
		"employerName":  "Employer name is required",
		"jobTitle":      "Job title is required",
		"monthlyIncome": "Please enter a valid monthly income",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestTenantPayloadSatisfiesContract(t *testing.T) {
	def := mustLoad(t, TenantProfile)
	payload, err := def.Assemble(wizard.Snapshot{
		"budget":            "500,000",
		"preferredLocation": "<b>Lekki</b> Phase 1",
		"bedrooms":          "2",
		"moveInDate":        "2025-01-15",
		"referenceEmail1":   "ref@example.com",
		"agreeToTerms":      true,
	}, map[string]string{"id_document": "https://cdn.example.com/id.pdf"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if payload["preferred_location"] != "Lekki Phase 1" {
		t.Fatalf("free text not sanitized: %q", payload["preferred_location"])
	}
	if payload["budget"] != 500000.0 {
		t.Fatalf("budget = %v", payload["budget"])
	}

	c, err := contract.Default()
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	if err := c.Validate(def.Operation, payload); err != nil {
		t.Fatalf("payload rejected: %v", err)
	}
}

func TestApplicationPayloadSatisfiesContract(t *testing.T) {
	def := mustLoad(t, RentalApplication)
	if def.Mode != submission.Multipart {
		t.Fatalf("mode = %v, want multipart", def.Mode)
	}
	payload, err := def.Assemble(wizard.Snapshot{
		FieldPropertyID:    "prop-1",
		"firstName":        "Ada",
		"lastName":         "Obi",
		"email":            "ada@example.com",
		"phone":            "+234 803 000 0000",
		"currentAddress":   "12 Admiralty Way",
		"employmentStatus": "employed",
		"employerName":     "Acme",
		"jobTitle":         "Engineer",
		"monthlyIncome":    "850000",
		"referenceName":    "Tunde",
		"referencePhone":   "08030000001",
		"agreeToTerms":     true,
	}, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	c, _ := contract.Default()
	if err := c.Validate(def.Operation, payload); err != nil {
		t.Fatalf("payload rejected: %v", err)
	}

	if _, err := def.Assemble(wizard.Snapshot{}, nil); err == nil {
		t.Fatalf("missing property id should fail")
	}
}

func TestLandlordSignupPayloadOmitsPreferences(t *testing.T) {
	def := mustLoad(t, Signup)
	payload, err := def.Assemble(wizard.Snapshot{
		"email":             "ngozi@example.com",
		"password":          "correct-horse",
		"firstName":         "Ngozi",
		"lastName":          "Okafor",
		"userType":          "landlord",
		"preferredLocation": "stale value",
	}, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if _, ok := payload["preferences"]; ok {
		t.Fatalf("landlord payload must not carry preferences")
	}
}
