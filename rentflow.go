// Package rentflow is the top-level entry point: it pairs the built-in flow
// definitions with the API client so callers can start a wizard in one call.
package rentflow

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/flows"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Definition aliases flows.Definition.
type Definition = flows.Definition

// Outcome aliases wizard.Outcome.
type Outcome = wizard.Outcome

// Result aliases submission.Result, found in Outcome.Detail after a
// submission attempt.
type Result = submission.Result

// ErrNoCreator is returned for flows without a known backend operation.
var ErrNoCreator = errors.New("rentflow: no creator for flow")

// Flows lists the built-in flow names.
func Flows() []string {
	return flows.Names()
}

// LoadFlow returns a built-in flow definition.
func LoadFlow(name string) (*Definition, error) {
	return flows.Load(name)
}

// LoadDefinitions parses custom definition files. Each file must name one
// of the built-in flows so its validators can be bound.
func LoadDefinitions(fsys fs.FS) (map[string]*Definition, error) {
	return flows.LoadFS(fsys)
}

// EmbeddedDefinitions exposes the built-in definition files.
func EmbeddedDefinitions() fs.FS {
	return flows.DefinitionsFS()
}

// CreatorFor returns the backend call that finishes def.
func CreatorFor(def *Definition, c *client.Client) (submission.Creator, error) {
	if def == nil || c == nil {
		return nil, fmt.Errorf("%w: definition and client are required", ErrNoCreator)
	}
	switch def.Flow.Name {
	case flows.Signup:
		return flows.SignupCreator(c), nil
	case flows.TenantProfile:
		return flows.TenantProfileCreator(c), nil
	case flows.RentalApplication:
		return flows.ApplicationCreator(c, def.SlotAliases), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoCreator, def.Flow.Name)
	}
}

// WizardConfig collects what NewWizard needs beyond the definition.
type WizardConfig struct {
	Client *client.Client
	// Store defaults to an empty store with the default stager.
	Store  *wizard.Store
	Logger *slog.Logger
	// Submission options are appended after the definition's own settings,
	// e.g. submission.WithUploader for upload-first flows.
	Submission []submission.Option
}

// Wizard is a controller wired to its submission orchestrator.
type Wizard struct {
	Definition   *Definition
	Controller   *wizard.Controller
	Orchestrator *submission.Orchestrator
}

// NewWizard builds the controller and orchestrator for def.
func NewWizard(def *Definition, cfg WizardConfig) (*Wizard, error) {
	creator, err := CreatorFor(def, cfg.Client)
	if err != nil {
		return nil, err
	}
	opts := cfg.Submission
	if cfg.Logger != nil {
		opts = append([]submission.Option{submission.WithLogger(cfg.Logger)}, opts...)
	}
	orch, err := def.Orchestrator(creator, opts...)
	if err != nil {
		return nil, err
	}

	store := cfg.Store
	if store == nil {
		store = wizard.NewStore()
	}
	ctrlOpts := []wizard.Option{wizard.WithSubmitter(orch.AsSubmitter())}
	if cfg.Logger != nil {
		ctrlOpts = append(ctrlOpts, wizard.WithLogger(cfg.Logger))
	}
	ctrl, err := wizard.NewController(def.Flow, store, ctrlOpts...)
	if err != nil {
		return nil, err
	}
	return &Wizard{Definition: def, Controller: ctrl, Orchestrator: orch}, nil
}

// Close tears the session down. In-flight submissions finish but their
// results are neither applied nor announced.
func (w *Wizard) Close() {
	w.Orchestrator.Close()
	w.Controller.Close()
}
