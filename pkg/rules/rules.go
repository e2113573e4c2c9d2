// Package rules compiles the small boolean expressions used by flow
// definitions to include or skip steps, for example
//
//	userType != "landlord"
//	employmentStatus == "employed" && budget >= 100000
//
// Supported syntax: identifiers (truthy checks), comparisons against string,
// number, bool and null literals (==, !=, <, <=, >, >=), !, &&, || and
// parentheses. Identifiers read from Env.Values with dotted-path traversal;
// the `extras.` prefix reads from Env.Extras.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Env supplies the values a rule is evaluated against.
type Env struct {
	Values map[string]any
	Extras map[string]any
}

// Rule is a compiled expression. The zero value and an empty source always
// evaluate to true.
type Rule struct {
	source string
	root   node
	fields []string
}

// ErrEmpty is returned by Compile when strict mode is requested for an empty
// expression.
var ErrEmpty = errors.New("rules: empty expression")

// Compile parses source once so it can be evaluated many times.
func Compile(source string) (*Rule, error) {
	trimmed := strings.TrimSpace(source)
	rule := &Rule{source: trimmed}
	if trimmed == "" {
		return rule, nil
	}

	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, idents: make(map[string]struct{})}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	rule.root = root
	for ident := range p.idents {
		if strings.HasPrefix(strings.ToLower(ident), "extras.") {
			continue
		}
		rule.fields = append(rule.fields, ident)
	}
	sort.Strings(rule.fields)
	return rule, nil
}

// MustCompile is Compile for static expressions; it panics on syntax errors.
func MustCompile(source string) *Rule {
	rule, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return rule
}

// Source returns the trimmed expression text.
func (r *Rule) Source() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Fields lists the value identifiers the rule reads, sorted. Extras are not
// included.
func (r *Rule) Fields() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.fields...)
}

// Eval evaluates the rule against env.
func (r *Rule) Eval(env Env) (bool, error) {
	if r == nil || r.root == nil {
		return true, nil
	}
	ok, err := r.root.eval(env)
	if err != nil {
		return false, fmt.Errorf("rules: eval %q: %w", r.source, err)
	}
	return ok, nil
}

// Match evaluates the rule against plain values.
func (r *Rule) Match(values map[string]any) (bool, error) {
	return r.Eval(Env{Values: values})
}
