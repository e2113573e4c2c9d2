package validation

import (
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Rule applies checks to one field. The first failing check's message is
// recorded.
type Rule struct {
	Field  string
	Checks []Check
	// When gates the rule on an upstream answer. Nil means always apply.
	When func(wizard.Snapshot) bool
}

// Field builds a rule for name.
func Field(name string, checks ...Check) Rule {
	return Rule{Field: name, Checks: checks}
}

// When returns rules that only apply while field equals value. It makes
// cross-step dependencies explicit in the validator that relies on them.
func When(field, value string, rules ...Rule) []Rule {
	gate := func(s wizard.Snapshot) bool {
		return s.String(field) == value
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.When = gate
		out[i] = r
	}
	return out
}

// Unless is the negation of When.
func Unless(field, value string, rules ...Rule) []Rule {
	gate := func(s wizard.Snapshot) bool {
		return s.String(field) != value
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.When = gate
		out[i] = r
	}
	return out
}

// Rules compiles rule lists into a step validator. Nested lists produced by
// When/Unless may be passed alongside plain rules via Group.
func Rules(rules ...Rule) wizard.Validator {
	return func(snapshot wizard.Snapshot, staged map[string]*staging.FileRef) wizard.ErrorMap {
		in := Input{Snapshot: snapshot, Staged: presence(staged)}
		errs := wizard.ErrorMap{}
		for _, rule := range rules {
			if rule.When != nil && !rule.When(snapshot) {
				continue
			}
			for _, check := range rule.Checks {
				if check == nil {
					continue
				}
				if msg := check(in, rule.Field); msg != "" {
					errs.Add(rule.Field, msg)
					break
				}
			}
		}
		return errs
	}
}

// Group flattens rule lists.
func Group(lists ...[]Rule) []Rule {
	var out []Rule
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// Validate runs a validator for a step by hand, for callers that do not use
// a controller.
func Validate(step wizard.Step, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) wizard.ErrorMap {
	return step.Validate(snapshot, staged)
}

func presence(staged map[string]*staging.FileRef) map[string]bool {
	out := make(map[string]bool, len(staged))
	for slot, ref := range staged {
		out[slot] = ref != nil
	}
	return out
}
