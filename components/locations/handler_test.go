package locations

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type handlerResponse struct {
	Data []Suggestion `json:"data"`
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandlerReturnsSuggestions(t *testing.T) {
	h := Handler(WithPlaces(testPlaces))
	rec := serve(t, h, http.MethodGet, "/locations?q=lek&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Value != "Lekki Phase 1, Lagos" || payload.Data[0].City != "Lagos" {
		t.Fatalf("data = %+v", payload.Data)
	}
}

func TestHandlerEmptyQueryReturnsEmptyArray(t *testing.T) {
	rec := serve(t, Handler(WithPlaces(testPlaces)), http.MethodGet, "/locations")
	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestHandlerRejectsMethodsAndGuards(t *testing.T) {
	rec := serve(t, Handler(), http.MethodPost, "/locations")
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") == "" {
		t.Fatalf("POST status = %d allow = %q", rec.Code, rec.Header().Get("Allow"))
	}

	guarded := Handler(WithGuard(func(*http.Request) error {
		return StatusError{Code: http.StatusUnauthorized, Err: errors.New("no token")}
	}))
	if rec := serve(t, guarded, http.MethodGet, "/locations?q=a"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("guard status = %d", rec.Code)
	}

	plain := Handler(WithGuard(func(*http.Request) error { return errors.New("nope") }))
	if rec := serve(t, plain, http.MethodGet, "/locations?q=a"); rec.Code != http.StatusForbidden {
		t.Fatalf("plain guard status = %d", rec.Code)
	}
}

func TestRegisterRoutesMountsUnderBase(t *testing.T) {
	if got := MountPath("api/v1/"); got != "/api/v1/locations" {
		t.Fatalf("MountPath = %q", got)
	}
	mux := http.NewServeMux()
	pattern, err := RegisterRoutes(mux, "/api/v1", WithPlaces(testPlaces))
	if err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	if rec := serve(t, mux, http.MethodGet, pattern+"?q=wuse"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}
