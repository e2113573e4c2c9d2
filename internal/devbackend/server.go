// Package devbackend is an in-memory stand-in for the marketplace API and
// its object storage. It backs integration tests and the rentflow-devserver
// binary.
package devbackend

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-rentflow/components/locations"
	"github.com/goliatone/go-rentflow/pkg/client"
)

const (
	apiPrefix     = "/api/v1"
	storagePrefix = "/storage/v1/object"

	// DefaultBucket is the only bucket accepted unless WithBucket says
	// otherwise.
	DefaultBucket = "documents"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger routes request logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProperties replaces the seeded listings.
func WithProperties(props []client.Property) Option {
	return func(s *Server) {
		s.properties = append([]client.Property(nil), props...)
	}
}

// WithBucket sets the storage bucket name.
func WithBucket(bucket string) Option {
	return func(s *Server) {
		if b := strings.Trim(strings.TrimSpace(bucket), "/"); b != "" {
			s.bucket = b
		}
	}
}

// WithStorageKey requires uploads to carry "Bearer key".
func WithStorageKey(key string) Option {
	return func(s *Server) {
		s.storageKey = strings.TrimSpace(key)
	}
}

// WithBcryptCost lowers the hashing cost, mostly for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

type account struct {
	user client.User
	hash []byte
}

type object struct {
	contentType string
	data        []byte
}

// Server holds every record in memory.
type Server struct {
	logger     *slog.Logger
	bucket     string
	storageKey string
	cost       int
	now        func() time.Time
	router     *mux.Router

	mu           sync.Mutex
	accounts     map[string]*account
	emails       map[string]string
	tokens       map[string]string
	profiles     map[string]map[string]any
	trust        map[string]int
	applications map[string]client.Application
	properties   []client.Property
	favorites    map[string][]client.Favorite
	objects      map[string]object
	faults       faults
}

// New builds a server seeded with sample listings.
func New(options ...Option) *Server {
	s := &Server{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		bucket:       DefaultBucket,
		cost:         bcrypt.DefaultCost,
		now:          time.Now,
		accounts:     make(map[string]*account),
		emails:       make(map[string]string),
		tokens:       make(map[string]string),
		profiles:     make(map[string]map[string]any),
		trust:        make(map[string]int),
		applications: make(map[string]client.Application),
		favorites:    make(map[string][]client.Favorite),
		objects:      make(map[string]object),
	}
	s.properties = SeedProperties(s.now())
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.authed(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/tenants/profile-status", s.authed(s.handleProfileStatus)).Methods(http.MethodGet)
	api.HandleFunc("/tenants/complete-profile", s.authed(s.handleCompleteProfile)).Methods(http.MethodPost)

	api.HandleFunc("/applications", s.authed(s.handleCreateApplication)).Methods(http.MethodPost)
	api.HandleFunc("/applications", s.authed(s.handleListApplications)).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}", s.authed(s.handleGetApplication)).Methods(http.MethodGet)

	api.HandleFunc("/properties", s.handleListProperties).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}", s.handleGetProperty).Methods(http.MethodGet)

	if _, err := locations.RegisterRoutes(routeAdapter{api}, ""); err != nil {
		s.logger.Error("devbackend: mount locations", "error", err)
	}

	api.HandleFunc("/favorites", s.authed(s.handleListFavorites)).Methods(http.MethodGet)
	api.HandleFunc("/favorites", s.authed(s.handleAddFavorite)).Methods(http.MethodPost)
	api.HandleFunc("/favorites/{id}", s.authed(s.handleRemoveFavorite)).Methods(http.MethodDelete)

	r.HandleFunc(storagePrefix+"/public/{bucket}/{key:.+}", s.handleGetObject).Methods(http.MethodGet)
	r.HandleFunc(storagePrefix+"/{bucket}/{key:.+}", s.handlePutObject).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// routeAdapter lets components register GET routes on a mux router.
type routeAdapter struct {
	r *mux.Router
}

func (a routeAdapter) Handle(pattern string, h http.Handler) {
	a.r.Handle(pattern, h).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("devbackend: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// authed rejects requests without a live bearer token and passes the
// account id to next.
func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, userID)
	}
}

func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// ExpireSessions revokes every issued token so the next authenticated call
// answers 401.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// fieldIssue is one entry of a 422 detail list.
type fieldIssue struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

type issues []fieldIssue

func (is *issues) add(msg string, loc ...string) {
	*is = append(*is, fieldIssue{Loc: append([]string{"body"}, loc...), Msg: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeIssues(w http.ResponseWriter, list issues) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": list})
}

var errBodyTooLarge = errors.New("devbackend: request body too large")

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err == nil && len(body) > maxJSONBody {
		err = errBodyTooLarge
	}
	if err == nil {
		err = json.Unmarshal(body, dst)
	}
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
