package devbackend

import "net/http"

// Fault selects which requests fail.
type Fault int

const (
	// FaultUploads fails storage writes.
	FaultUploads Fault = iota
	// FaultCreates fails record creation (profiles, applications).
	FaultCreates
)

type faults struct {
	uploads int
	creates int
}

// FailNext makes the next n requests of the given kind answer 503. It
// backs retry tests.
func (s *Server) FailNext(kind Fault, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case FaultUploads:
		s.faults.uploads = n
	case FaultCreates:
		s.faults.creates = n
	}
}

// injected consumes one pending fault and writes the error response.
func (s *Server) injected(w http.ResponseWriter, kind Fault) bool {
	s.mu.Lock()
	counter := &s.faults.creates
	if kind == FaultUploads {
		counter = &s.faults.uploads
	}
	fail := *counter > 0
	if fail {
		*counter--
	}
	s.mu.Unlock()
	if fail {
		writeDetail(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	}
	return fail
}
