package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys, shared with the web front end's local storage layout.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

// EventKind identifies a session change.
type EventKind string

const (
	// EventSet fires after a successful login or registration.
	EventSet EventKind = "set"
	// EventCleared fires after an explicit logout.
	EventCleared EventKind = "cleared"
	// EventInvalidated fires when the backend rejected the token (401).
	EventInvalidated EventKind = "invalidated"
)

// Event is delivered to session subscribers.
type Event struct {
	Kind EventKind
	User *User
}

// Storage persists the session between runs.
type Storage interface {
	Load() (map[string]json.RawMessage, error)
	Save(values map[string]json.RawMessage) error
}

// MemoryStorage keeps values in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

// Load returns a copy of the stored values.
func (m *MemoryStorage) Load() (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]json.RawMessage, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored values.
func (m *MemoryStorage) Save(values map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// FileStorage persists values as a JSON object on disk.
type FileStorage struct {
	Path string
}

// Load reads the file; a missing file is an empty session.
func (f FileStorage) Load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client: read session %s: %w", f.Path, err)
	}
	out := map[string]json.RawMessage{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("client: decode session %s: %w", f.Path, err)
	}
	return out, nil
}

// Save writes the file with owner-only permissions.
func (f FileStorage) Save(values map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("client: create session dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encode session: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("client: write session %s: %w", f.Path, err)
	}
	return nil
}

// Session holds the bearer token and signed-in user. Every request reads the
// token from here and every 401 clears it.
type Session struct {
	mu          sync.RWMutex
	storage     Storage
	token       string
	user        *User
	nextID      int
	subscribers map[int]func(Event)
}

// NewSession loads any persisted session from storage. A nil storage keeps
// the session in memory.
func NewSession(storage Storage) (*Session, error) {
	if storage == nil {
		storage = &MemoryStorage{}
	}
	s := &Session{storage: storage, subscribers: make(map[int]func(Event))}

	values, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if raw, ok := values[KeyAccessToken]; ok {
		if err := json.Unmarshal(raw, &s.token); err != nil {
			return nil, fmt.Errorf("client: decode %s: %w", KeyAccessToken, err)
		}
	}
	if raw, ok := values[KeyUser]; ok && string(raw) != "null" {
		var user User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("client: decode %s: %w", KeyUser, err)
		}
		s.user = &user
	}
	return s, nil
}

// Token returns the current bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set stores a new token and user and persists them.
func (s *Session) Set(token string, user *User) error {
	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	err := s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventSet, User: user})
	return err
}

// Clear removes the session after a logout.
func (s *Session) Clear() error {
	return s.reset(EventCleared)
}

// Invalidate removes the session after the backend rejected it.
func (s *Session) Invalidate() error {
	return s.reset(EventInvalidated)
}

func (s *Session) reset(kind EventKind) error {
	s.mu.Lock()
	user := s.user
	s.token = ""
	s.user = nil
	err := s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: kind, User: user})
	return err
}

// Subscribe registers fn for session events and returns an unsubscribe
// function.
func (s *Session) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Session) emit(evt Event) {
	s.mu.RLock()
	subs := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
}

func (s *Session) persistLocked() error {
	values := map[string]json.RawMessage{}
	if s.token != "" {
		raw, err := json.Marshal(s.token)
		if err != nil {
			return err
		}
		values[KeyAccessToken] = raw
	}
	if s.user != nil {
		raw, err := json.Marshal(s.user)
		if err != nil {
			return err
		}
		values[KeyUser] = raw
	}
	return s.storage.Save(values)
}
