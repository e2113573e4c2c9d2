package wizard

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Snapshot holds every field value collected during a wizard session keyed by
// field name. Values are strings, numbers or booleans.
type Snapshot map[string]any

// Clone returns a detached copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether name was ever set.
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// String returns the trimmed string form of a value, or "" when unset.
func (s Snapshot) String(name string) string {
	switch v := s[name].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Number parses a value as a finite float. Strings are parsed after trimming
// thousands separators and must be plain decimal notation.
func (s Snapshot) Number(name string) (float64, bool) {
	switch v := s[name].(type) {
	case float64:
		return v, finite(v)
	case float32:
		return float64(v), finite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		clean := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if clean == "" || !decimal(clean) {
			return 0, false
		}
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// decimal rejects the spellings ParseFloat accepts beyond plain numbers:
// NaN, Inf and hex floats.
func decimal(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case r == 'e' || r == 'E':
		case (r == '+' || r == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return true
}

// Bool reads a checkbox style value.
func (s Snapshot) Bool(name string) bool {
	switch v := s[name].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// ErrorMap maps field names to a human-readable message. An empty map means
// the step is valid.
type ErrorMap map[string]string

// Clone returns a detached copy.
func (e ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Empty reports whether no errors are recorded.
func (e ErrorMap) Empty() bool {
	return len(e) == 0
}

// Fields returns the failing field names, sorted.
func (e ErrorMap) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add records msg for field unless the field already has a message; the
// first failing check wins.
func (e ErrorMap) Add(field, msg string) {
	if e == nil || msg == "" {
		return
	}
	if _, exists := e[field]; exists {
		return
	}
	e[field] = msg
}
