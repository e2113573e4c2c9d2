package rentflow

import (
	"context"
	"errors"
	"io/fs"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-rentflow/internal/devbackend"
	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

func TestFlowsAndEmbeddedDefinitions(t *testing.T) {
	want := []string{"rental-application", "signup", "tenant-profile"}
	if diff := cmp.Diff(want, Flows()); diff != "" {
		t.Fatalf("flows mismatch (-want +got):\n%s", diff)
	}

	defs, err := LoadDefinitions(EmbeddedDefinitions())
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != len(want) {
		t.Fatalf("loaded %d definitions", len(defs))
	}
	if _, err := fs.ReadFile(EmbeddedDefinitions(), "signup.yaml"); err != nil {
		t.Fatalf("signup.yaml not exposed: %v", err)
	}
}

func TestCreatorForUnknownFlow(t *testing.T) {
	api, _ := client.New("http://localhost:8000")
	def := &Definition{Flow: wizard.Flow{Name: "landlord-listing"}}
	if _, err := CreatorFor(def, api); !errors.Is(err, ErrNoCreator) {
		t.Fatalf("expected ErrNoCreator, got %v", err)
	}
	if _, err := CreatorFor(nil, api); !errors.Is(err, ErrNoCreator) {
		t.Fatalf("expected ErrNoCreator for nil definition, got %v", err)
	}
}

func TestSignupWizardRegistersAccount(t *testing.T) {
	backend := devbackend.New(devbackend.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(backend)
	defer srv.Close()
	api, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	def, err := LoadFlow("signup")
	if err != nil {
		t.Fatalf("LoadFlow: %v", err)
	}
	w, err := NewWizard(def, WizardConfig{
		Client: api,
		Store: wizard.NewStore(wizard.WithValues(map[string]any{
			"firstName":       "Kemi",
			"lastName":        "Ade",
			"email":           "kemi@example.com",
			"phone":           "08031234567",
			"password":        "s3cret-pass",
			"confirmPassword": "s3cret-pass",
			"userType":        "landlord",
		})),
	})
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	defer w.Close()

	if got := len(w.Controller.Steps()); got != 2 {
		t.Fatalf("landlord signup should skip preferences, got %d steps", got)
	}
	ctx := context.Background()
	if move, err := w.Controller.Next(ctx); err != nil || move != wizard.MoveAdvanced {
		t.Fatalf("first next = %v %v (errors %v)", move, err, w.Controller.Store().Errors())
	}
	move, err := w.Controller.Next(ctx)
	if err != nil || move != wizard.MoveSubmitted {
		t.Fatalf("submit = %v %v (outcome %+v)", move, err, w.Controller.LastOutcome())
	}

	result, ok := w.Controller.LastOutcome().Detail.(Result)
	if !ok || !result.Success {
		t.Fatalf("detail = %#v", w.Controller.LastOutcome().Detail)
	}
	if u := api.Session().User(); u == nil || u.UserType != "landlord" {
		t.Fatalf("session user = %+v", u)
	}
}
