package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetFieldAlwaysClearsError(t *testing.T) {
	store := NewStore()
	store.SetErrors(ErrorMap{"budget": "Please enter a valid budget", "bedrooms": "Required"})

	for _, value := range []any{"-500", "", 12.5, true} {
		store.SetErrors(ErrorMap{"budget": "stale"})
		if err := store.SetField("budget", value); err != nil {
			t.Fatalf("set field: %v", err)
		}
		if _, ok := store.Errors()["budget"]; ok {
			t.Fatalf("error survived edit with value %v", value)
		}
	}
}

func TestClearFieldErrorLeavesOthers(t *testing.T) {
	store := NewStore()
	store.SetErrors(ErrorMap{"a": "x", "b": "y"})
	store.ClearFieldError("a")
	if diff := cmp.Diff(ErrorMap{"b": "y"}, store.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore(WithValues(map[string]any{"budget": "100"}))
	snap := store.Snapshot()
	snap["budget"] = "999"
	if v, _ := store.Value("budget"); v != "100" {
		t.Fatalf("snapshot mutation leaked into store: %v", v)
	}
}

func TestSeedIsOneTime(t *testing.T) {
	store := NewStore(WithValues(map[string]any{"phone": "+234 800 000 0000"}))

	if !store.Seed(Profile{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+1 555"}) {
		t.Fatalf("first seed should apply")
	}
	want := Snapshot{
		"firstName": "Ada",
		"lastName":  "Obi",
		"email":     "ada@example.com",
		"phone":     "+234 800 000 0000",
	}
	if diff := cmp.Diff(want, store.Snapshot()); diff != "" {
		t.Fatalf("seeded snapshot mismatch (-want +got):\n%s", diff)
	}

	_ = store.SetField("firstName", "Adaeze")
	if store.Seed(Profile{FirstName: "Other"}) {
		t.Fatalf("second seed must be ignored")
	}
	if got := store.Snapshot().String("firstName"); got != "Adaeze" {
		t.Fatalf("form owns the value after seeding, got %q", got)
	}
}

func TestSnapshotAccessors(t *testing.T) {
	snap := Snapshot{"budget": "500,000", "bedrooms": 2, "agree": "true", "name": "  Ada "}
	if n, ok := snap.Number("budget"); !ok || n != 500000 {
		t.Fatalf("budget parse: %v %v", n, ok)
	}
	if n, ok := snap.Number("bedrooms"); !ok || n != 2 {
		t.Fatalf("bedrooms parse: %v %v", n, ok)
	}
	if !snap.Bool("agree") || snap.Bool("missing") {
		t.Fatalf("bool accessor mismatch")
	}
	if snap.String("name") != "Ada" {
		t.Fatalf("string accessor should trim")
	}
}
