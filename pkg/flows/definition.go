// Package flows declares the marketplace wizards (tenant profile, rental
// application, signup). Step layout lives in embedded YAML; validators,
// assemblers and creators are bound in Go by flow name and step id.
package flows

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rentflow/pkg/contract"
	"github.com/goliatone/go-rentflow/pkg/rules"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Flow names.
const (
	TenantProfile     = "tenant-profile"
	RentalApplication = "rental-application"
	Signup            = "signup"
)

//go:embed definitions/*.yaml
var definitionFiles embed.FS

// DefinitionsFS exposes the embedded definition files so callers can copy
// and extend them before passing the result to LoadFS.
func DefinitionsFS() fs.FS {
	sub, err := fs.Sub(definitionFiles, "definitions")
	if err != nil {
		return definitionFiles
	}
	return sub
}

// ErrUnknownFlow is returned for names with no definition.
var ErrUnknownFlow = errors.New("flows: unknown flow")

// Definition is a loaded flow plus its submission settings.
type Definition struct {
	Flow           wizard.Flow
	Mode           submission.Mode
	Operation      string
	SuccessMessage string
	// SlotAliases maps staged slot names onto payload keys.
	SlotAliases map[string]string
	Assemble    submission.Assembler
}

// FieldNames lists every field across all steps, in step order.
func (d *Definition) FieldNames() []string {
	var out []string
	for _, step := range d.Flow.Steps {
		for _, f := range step.Fields {
			out = append(out, f.Name)
		}
	}
	return out
}

// Orchestrator wires a submission.Orchestrator for this flow. The caller
// supplies the creator and any extra options (uploader, notifier, navigator).
func (d *Definition) Orchestrator(creator submission.Creator, opts ...submission.Option) (*submission.Orchestrator, error) {
	c, err := contract.Default()
	if err != nil {
		return nil, err
	}
	base := []submission.Option{
		submission.WithMode(d.Mode),
		submission.WithSlotAliases(d.SlotAliases),
		submission.WithFieldNames(d.FieldNames()...),
		submission.WithSuccessMessage(d.SuccessMessage),
	}
	if d.Operation != "" {
		base = append(base, submission.WithContract(c, d.Operation))
	}
	return submission.New(d.Assemble, creator, append(base, opts...)...), nil
}

type definitionFile struct {
	Name   string     `json:"name" yaml:"name"`
	Title  string     `json:"title" yaml:"title"`
	Route  string     `json:"route" yaml:"route"`
	Submit submitFile `json:"submit" yaml:"submit"`
	Steps  []stepFile `json:"steps" yaml:"steps"`
}

type submitFile struct {
	Mode           string            `json:"mode" yaml:"mode"`
	Operation      string            `json:"operation" yaml:"operation"`
	SuccessMessage string            `json:"successMessage" yaml:"successMessage"`
	Slots          map[string]string `json:"slots" yaml:"slots"`
}

type stepFile struct {
	ID         string             `json:"id" yaml:"id"`
	Title      string             `json:"title" yaml:"title"`
	Review     bool               `json:"review" yaml:"review"`
	IncludedIf string             `json:"includedIf" yaml:"includedIf"`
	Fields     []wizard.FieldSpec `json:"fields" yaml:"fields"`
}

// binding attaches Go behaviour to a YAML definition.
type binding struct {
	validators map[string]wizard.Validator
	assemble   submission.Assembler
}

var bindings = map[string]binding{
	TenantProfile:     {validators: tenantProfileValidators(), assemble: assembleTenantProfile},
	RentalApplication: {validators: applicationValidators(), assemble: assembleApplication},
	Signup:            {validators: signupValidators(), assemble: assembleSignup},
}

var (
	loadOnce sync.Once
	loaded   map[string]*Definition
	loadErr  error
)

// Load returns the named built-in flow.
func Load(name string) (*Definition, error) {
	loadOnce.Do(func() {
		loaded, loadErr = LoadFS(definitionFiles)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	def, ok := loaded[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	// callers may mutate options on the flow; hand out a copy
	out := *def
	out.Flow.Steps = append([]wizard.Step(nil), def.Flow.Steps...)
	return &out, nil
}

// Names lists the built-in flows.
func Names() []string {
	out := make([]string, 0, len(bindings))
	for name := range bindings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadFS parses every JSON/YAML definition in fsys and binds it to the Go
// validators registered for its name.
func LoadFS(fsys fs.FS) (map[string]*Definition, error) {
	out := make(map[string]*Definition)
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("flows: read %s: %w", p, err)
		}
		raw, err := parseDefinition(data, p)
		if err != nil {
			return err
		}
		def, err := bind(raw, p)
		if err != nil {
			return err
		}
		if _, dup := out[def.Flow.Name]; dup {
			return fmt.Errorf("flows: duplicate flow %q (file %s)", def.Flow.Name, p)
		}
		out[def.Flow.Name] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseDefinition(data []byte, source string) (definitionFile, error) {
	var raw definitionFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return raw, fmt.Errorf("flows: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &raw); err == nil {
		return raw, nil
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("flows: parse %s: %w", source, err)
	}
	return raw, nil
}

func bind(raw definitionFile, source string) (*Definition, error) {
	name := strings.TrimSpace(raw.Name)
	b, ok := bindings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (file %s)", ErrUnknownFlow, name, source)
	}

	steps := make([]wizard.Step, 0, len(raw.Steps))
	for _, s := range raw.Steps {
		id := strings.TrimSpace(s.ID)
		validator, ok := b.validators[id]
		if !ok {
			return nil, fmt.Errorf("flows: %s step %q has no validator", name, id)
		}
		var rule *rules.Rule
		if expr := strings.TrimSpace(s.IncludedIf); expr != "" {
			compiled, err := rules.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("flows: %s step %q includedIf: %w", name, id, err)
			}
			rule = compiled
		}
		fields := make([]wizard.FieldSpec, len(s.Fields))
		for i, f := range s.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return nil, fmt.Errorf("flows: %s step %q field %d has no name", name, id, i+1)
			}
			if f.Kind == "" {
				f.Kind = wizard.FieldText
			}
			fields[i] = f
		}
		steps = append(steps, wizard.Step{
			ID:         id,
			Title:      strings.TrimSpace(s.Title),
			Fields:     fields,
			Validator:  validator,
			IncludedIf: rule,
			Review:     s.Review,
		})
	}

	flow, err := wizard.NewFlow(name, steps...)
	if err != nil {
		return nil, err
	}
	flow.Title = strings.TrimSpace(raw.Title)
	flow.Route = strings.TrimSpace(raw.Route)

	mode, err := parseMode(raw.Submit.Mode)
	if err != nil {
		return nil, fmt.Errorf("flows: %s: %w", name, err)
	}
	return &Definition{
		Flow:           flow,
		Mode:           mode,
		Operation:      strings.TrimSpace(raw.Submit.Operation),
		SuccessMessage: strings.TrimSpace(raw.Submit.SuccessMessage),
		SlotAliases:    raw.Submit.Slots,
		Assemble:       b.assemble,
	}, nil
}

func parseMode(s string) (submission.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upload":
		return submission.UploadThenCreate, nil
	case "multipart":
		return submission.Multipart, nil
	default:
		return 0, fmt.Errorf("unknown submit mode %q", s)
	}
}

func isDefinitionFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
