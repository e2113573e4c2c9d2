package wizard

import (
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

// Profile carries the account details used to pre-populate a wizard.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Store owns the snapshot, the error map and the staged documents for one
// wizard session. Mutations after Close are ignored so late network
// callbacks cannot touch a session that has been torn down.
type Store struct {
	mu       sync.RWMutex
	values   Snapshot
	errors   ErrorMap
	// rejected holds stager rejections per slot until the slot is restaged
	// or cleared.
	rejected ErrorMap
	stager   *staging.Stager
	seeded   bool
	closed   bool
	onChange []func(name string)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStager replaces the default document stager.
func WithStager(stager *staging.Stager) StoreOption {
	return func(s *Store) {
		if stager != nil {
			s.stager = stager
		}
	}
}

// WithValues pre-populates the snapshot.
func WithValues(values map[string]any) StoreOption {
	return func(s *Store) {
		for k, v := range values {
			s.values[k] = v
		}
	}
}

// NewStore constructs an empty store.
func NewStore(options ...StoreOption) *Store {
	s := &Store{
		values: make(Snapshot),
		errors:   make(ErrorMap),
		rejected: make(ErrorMap),
		stager:   staging.New(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Snapshot returns a copy of every collected value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Value returns a single field value.
func (s *Store) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// SetField stores value and clears any error recorded for the field.
func (s *Store) SetField(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrFieldName
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.values[name] = value
	delete(s.errors, name)
	listeners := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(name)
	}
	return nil
}

// SetFile stages file under slot, or clears the slot when file is nil. A
// stager rejection is recorded as the slot's error and returned, and stays
// pending for the controller's gate even when an earlier file is still
// staged under the slot.
func (s *Store) SetFile(slot string, file *staging.FileRef) error {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return ErrFieldName
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if file == nil {
		s.stager.Unstage(slot)
		delete(s.errors, slot)
		delete(s.rejected, slot)
		s.mu.Unlock()
		return nil
	}
	err := s.stager.Stage(slot, *file)
	var rejection *staging.RejectionError
	switch {
	case errors.As(err, &rejection):
		s.errors[slot] = rejection.Reason
		s.rejected[slot] = rejection.Reason
	case err != nil:
		s.errors[slot] = err.Error()
		s.rejected[slot] = err.Error()
	default:
		delete(s.errors, slot)
		delete(s.rejected, slot)
	}
	listeners := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(slot)
	}
	return err
}

// Staged returns the slot to file mapping.
func (s *Store) Staged() map[string]*staging.FileRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stager.Staged()
}

// Rejections returns the pending stager rejections keyed by slot.
func (s *Store) Rejections() ErrorMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rejected.Clone()
}

// Errors returns a copy of the current error map.
func (s *Store) Errors() ErrorMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors.Clone()
}

// SetErrors replaces the error map.
func (s *Store) SetErrors(errs ErrorMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.errors = errs.Clone()
}

// ClearFieldError removes the error for name.
func (s *Store) ClearFieldError(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.errors, name)
}

// Seed copies profile details into empty fields. Only the first call has an
// effect; the form owns the values afterwards.
func (s *Store) Seed(p Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.seeded {
		return false
	}
	s.seeded = true
	for name, value := range map[string]string{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"email":     p.Email,
		"phone":     p.Phone,
	} {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if existing := s.values.String(name); existing != "" {
			continue
		}
		s.values[name] = value
	}
	return true
}

// OnChange registers a listener called after every field or file edit.
func (s *Store) OnChange(fn func(name string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Close tears the session down.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.onChange = nil
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
