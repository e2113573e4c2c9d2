package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-rentflow/pkg/rules"
	"github.com/goliatone/go-rentflow/pkg/staging"
)

// FieldKind selects how a front end collects a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextArea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldEmail    FieldKind = "email"
	FieldPhone    FieldKind = "phone"
	FieldDate     FieldKind = "date"
	FieldSelect   FieldKind = "select"
	FieldConfirm  FieldKind = "confirm"
	FieldPassword FieldKind = "password"
	FieldFile     FieldKind = "file"
)

// FieldSpec describes a single input on a step.
type FieldSpec struct {
	Name     string    `yaml:"name" json:"name"`
	Label    string    `yaml:"label" json:"label"`
	Kind     FieldKind `yaml:"kind" json:"kind"`
	Help     string    `yaml:"help,omitempty" json:"help,omitempty"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	// Suggest names an autocomplete source, e.g. "locations".
	Suggest string `yaml:"suggest,omitempty" json:"suggest,omitempty"`
}

// DisplayLabel falls back to the field name when no label is configured.
func (f FieldSpec) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

// Validator maps a snapshot (and the staged documents) to the errors for one
// step. Validators receive the full snapshot so cross-step dependencies are
// explicit in their implementation.
type Validator func(snapshot Snapshot, staged map[string]*staging.FileRef) ErrorMap

// Step is one page of a wizard.
type Step struct {
	// Index is the 1-based position within the effective sequence. It is
	// assigned by the controller and zero on definitions.
	Index      int
	ID         string
	Title      string
	Fields     []FieldSpec
	Validator  Validator
	IncludedIf *rules.Rule
	// Review marks a summary step whose front end offers edit jumps.
	Review bool
}

// Required lists the names of required fields, including file slots.
func (s Step) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Slots lists the file fields on the step.
func (s Step) Slots() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == FieldFile {
			out = append(out, f.Name)
		}
	}
	return out
}

// Field looks up a field spec by name.
func (s Step) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate runs the step validator. Steps without one are always valid.
func (s Step) Validate(snapshot Snapshot, staged map[string]*staging.FileRef) ErrorMap {
	if s.Validator == nil {
		return ErrorMap{}
	}
	errs := s.Validator(snapshot, staged)
	if errs == nil {
		return ErrorMap{}
	}
	return errs
}

// Flow is an ordered list of step definitions.
type Flow struct {
	Name  string
	Title string
	Steps []Step
	// Route is where front ends navigate after a successful submission.
	Route string
}

// NewFlow validates the definitions and returns a flow.
func NewFlow(name string, steps ...Step) (Flow, error) {
	flow := Flow{Name: strings.TrimSpace(name), Steps: steps}
	if err := flow.Check(); err != nil {
		return Flow{}, err
	}
	return flow, nil
}

// Check verifies the flow has steps with unique ids.
func (f Flow) Check() error {
	if f.Name == "" {
		return fmt.Errorf("wizard: flow name is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("wizard: flow %s has no steps", f.Name)
	}
	seen := make(map[string]struct{}, len(f.Steps))
	for i, step := range f.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("wizard: flow %s step %d has no id", f.Name, i+1)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("wizard: flow %s has duplicate step %q", f.Name, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// BranchFields lists every field read by a step inclusion rule. Only edits to
// these fields recompute the effective sequence.
func (f Flow) BranchFields() []string {
	set := make(map[string]struct{})
	for _, step := range f.Steps {
		for _, name := range step.IncludedIf.Fields() {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Effective returns the steps included for snapshot, indexed from 1.
func (f Flow) Effective(snapshot Snapshot) ([]Step, error) {
	out := make([]Step, 0, len(f.Steps))
	for _, step := range f.Steps {
		ok, err := step.IncludedIf.Match(snapshot)
		if err != nil {
			return nil, fmt.Errorf("wizard: step %s: %w", step.ID, err)
		}
		if !ok {
			continue
		}
		step.Index = len(out) + 1
		out = append(out, step)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("wizard: flow %s has no included steps", f.Name)
	}
	return out, nil
}
