package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Check inspects one field and returns a message, or "" when the value is
// acceptable.
type Check func(in Input, field string) string

// Input bundles everything a check may read.
type Input struct {
	Snapshot wizard.Snapshot
	Staged   map[string]bool
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required rejects empty values.
func Required(msg string) Check {
	return func(in Input, field string) string {
		if in.Snapshot.String(field) == "" {
			return msg
		}
		return ""
	}
}

// PositiveNumber rejects values that do not parse as a number greater than
// zero. Empty values are rejected too.
func PositiveNumber(msg string) Check {
	return func(in Input, field string) string {
		n, ok := in.Snapshot.Number(field)
		if !ok || n <= 0 {
			return msg
		}
		return ""
	}
}

// NonNegativeNumber accepts zero; empty values pass so the check can be paired
// with Required.
func NonNegativeNumber(msg string) Check {
	return func(in Input, field string) string {
		if in.Snapshot.String(field) == "" {
			return ""
		}
		n, ok := in.Snapshot.Number(field)
		if !ok || n < 0 {
			return msg
		}
		return ""
	}
}

// Email validates the address shape. Empty values pass; pair with Required
// for mandatory addresses.
func Email(msg string) Check {
	return func(in Input, field string) string {
		value := in.Snapshot.String(field)
		if value == "" {
			return ""
		}
		if !emailPattern.MatchString(value) {
			return msg
		}
		return ""
	}
}

// Phone accepts digits with optional +, spaces, dashes and parentheses, 7 to
// 20 digits long. Empty values pass.
func Phone(msg string) Check {
	return func(in Input, field string) string {
		value := in.Snapshot.String(field)
		if value == "" {
			return ""
		}
		digits := 0
		for i, r := range value {
			switch {
			case unicode.IsDigit(r):
				digits++
			case r == '+' && i == 0:
			case r == ' ' || r == '-' || r == '(' || r == ')':
			default:
				return msg
			}
		}
		if digits < 7 || digits > 20 {
			return msg
		}
		return ""
	}
}

// MinLength rejects values shorter than n runes. Empty values pass.
func MinLength(n int, msg string) Check {
	return func(in Input, field string) string {
		value := in.Snapshot.String(field)
		if value == "" {
			return ""
		}
		if len([]rune(value)) < n {
			return msg
		}
		return ""
	}
}

// OneOf restricts the value to options. Empty values pass.
func OneOf(msg string, options ...string) Check {
	return func(in Input, field string) string {
		value := in.Snapshot.String(field)
		if value == "" {
			return ""
		}
		for _, opt := range options {
			if strings.EqualFold(opt, value) {
				return ""
			}
		}
		return msg
	}
}

// Date requires YYYY-MM-DD. Empty values pass.
func Date(msg string) Check {
	return func(in Input, field string) string {
		value := in.Snapshot.String(field)
		if value == "" {
			return ""
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return msg
		}
		return ""
	}
}

// MustAccept requires a checked box.
func MustAccept(msg string) Check {
	return func(in Input, field string) string {
		if !in.Snapshot.Bool(field) {
			return msg
		}
		return ""
	}
}

// FilePresent requires a staged document in the slot named by the field.
func FilePresent(msg string) Check {
	return func(in Input, field string) string {
		if !in.Staged[field] {
			return msg
		}
		return ""
	}
}

// Matches requires the value to equal another field, e.g. password
// confirmation.
func Matches(other, msg string) Check {
	return func(in Input, field string) string {
		if in.Snapshot.String(field) != in.Snapshot.String(other) {
			return msg
		}
		return ""
	}
}

// Custom wraps an ad-hoc predicate over the value.
func Custom(msg string, ok func(value string) bool) Check {
	return func(in Input, field string) string {
		if ok == nil || ok(in.Snapshot.String(field)) {
			return ""
		}
		return msg
	}
}

// RequiredMessage builds the common "<Label> is required" message.
func RequiredMessage(label string) string {
	return fmt.Sprintf("%s is required", strings.TrimSpace(label))
}
