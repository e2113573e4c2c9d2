// Package prompt drives a wizard.Controller from the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Option configures a Runner.
type Option func(*Runner)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithStyles overrides the palette.
func WithStyles(styles Styles) Option {
	return func(r *Runner) {
		r.styles = styles
	}
}

// WithLogger routes runner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Suggester returns completions for partial input.
type Suggester func(ctx context.Context, partial string) []string

// WithSuggester registers the completion source for fields whose suggest
// key equals name.
func WithSuggester(name string, fn Suggester) Option {
	return func(r *Runner) {
		if name = strings.TrimSpace(name); name != "" && fn != nil {
			r.suggesters[name] = fn
		}
	}
}

const (
	actionNext   = "Next"
	actionSubmit = "Submit"
	actionBack   = "Back"
	actionCancel = "Cancel"
	editPrefix   = "Edit: "
)

// Runner prompts for each step of a controller until it submits or the user
// cancels.
type Runner struct {
	ctrl   *wizard.Controller
	driver PromptDriver
	styles Styles
	logger *slog.Logger

	suggesters map[string]Suggester

	mu        sync.Mutex
	abandoned error
}

// NewRunner wraps ctrl.
func NewRunner(ctrl *wizard.Controller, options ...Option) (*Runner, error) {
	if ctrl == nil {
		return nil, errors.New("prompt: controller is required")
	}
	r := &Runner{
		ctrl:       ctrl,
		styles:     DefaultStyles(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		suggesters: make(map[string]Suggester),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Abandon tears the wizard down. The running loop stops at its next prompt
// and returns an error wrapping ErrAbandoned and reason. Collected answers
// are discarded.
func (r *Runner) Abandon(reason error) {
	r.mu.Lock()
	if r.abandoned == nil {
		if reason == nil {
			r.abandoned = ErrAbandoned
		} else {
			r.abandoned = fmt.Errorf("%w: %w", ErrAbandoned, reason)
		}
	}
	r.mu.Unlock()
	r.ctrl.Close()
}

func (r *Runner) abandonedErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abandoned
}

// Run loops over the steps. It returns the successful outcome, ErrAborted
// when the user cancels, or an ErrAbandoned error.
func (r *Runner) Run(ctx context.Context) (wizard.Outcome, error) {
	for {
		if err := r.abandonedErr(); err != nil {
			return wizard.Outcome{}, err
		}
		if r.ctrl.Submitted() {
			return r.ctrl.LastOutcome(), nil
		}

		state := r.ctrl.State()
		header := fmt.Sprintf("Step %d of %d: %s", state.Index, state.Total, state.Step.Title)
		if err := r.driver.Info(ctx, r.styles.Header.Render(header)); err != nil {
			return wizard.Outcome{}, err
		}

		if state.Step.Review {
			if err := r.showSummary(ctx, state); err != nil {
				return wizard.Outcome{}, err
			}
		}
		if err := r.promptStep(ctx, state.Step); err != nil {
			return wizard.Outcome{}, r.translate(err)
		}

		action, err := r.chooseAction(ctx, r.ctrl.State())
		if err != nil {
			return wizard.Outcome{}, r.translate(err)
		}
		if err := r.abandonedErr(); err != nil {
			return wizard.Outcome{}, err
		}

		switch {
		case action == actionCancel:
			r.ctrl.Close()
			return wizard.Outcome{}, ErrAborted
		case action == actionBack:
			if _, err := r.ctrl.Back(); err != nil {
				return wizard.Outcome{}, err
			}
		case strings.HasPrefix(action, editPrefix):
			if err := r.jump(action); err != nil {
				return wizard.Outcome{}, err
			}
		default:
			move, err := r.ctrl.Next(ctx)
			if err != nil {
				return wizard.Outcome{}, err
			}
			r.logger.Debug("prompt: next", "move", move.String())
			if err := r.abandonedErr(); err != nil {
				return wizard.Outcome{}, err
			}
			switch move {
			case wizard.MoveSubmitted:
				return r.ctrl.LastOutcome(), nil
			case wizard.MoveNone, wizard.MoveSubmitFailed:
				if err := r.showErrors(ctx); err != nil {
					return wizard.Outcome{}, err
				}
			}
		}
	}
}

func (r *Runner) translate(err error) error {
	if abandoned := r.abandonedErr(); abandoned != nil {
		return abandoned
	}
	return err
}

func (r *Runner) showSummary(ctx context.Context, state wizard.State) error {
	steps := r.ctrl.Steps()
	if state.Index > 1 {
		steps = steps[:state.Index-1]
	}
	store := r.ctrl.Store()
	summary, err := Summary(steps, store.Snapshot(), store.Staged())
	if err != nil {
		return err
	}
	return r.driver.Info(ctx, r.styles.Box.Render(summary))
}

func (r *Runner) showErrors(ctx context.Context) error {
	errs := r.ctrl.Store().Errors()
	for _, name := range errs.Fields() {
		label := name
		if f, ok := r.ctrl.Current().Field(name); ok {
			label = f.DisplayLabel()
		}
		if err := r.driver.Info(ctx, r.styles.Error.Render(fmt.Sprintf("! %s: %s", label, errs[name]))); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) chooseAction(ctx context.Context, state wizard.State) (string, error) {
	options := []string{actionNext}
	if state.Last() {
		options[0] = actionSubmit
	}
	if state.Index > 1 {
		options = append(options, actionBack)
	}
	if state.Step.Review {
		for _, step := range r.ctrl.Steps() {
			if step.Index < state.Index {
				options = append(options, editPrefix+step.Title)
			}
		}
	}
	options = append(options, actionCancel)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Continue", Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return "", fmt.Errorf("prompt: invalid choice %d", idx)
	}
	return options[idx], nil
}

func (r *Runner) jump(action string) error {
	title := strings.TrimPrefix(action, editPrefix)
	for _, step := range r.ctrl.Steps() {
		if step.Title == title {
			return r.ctrl.JumpTo(step.Index)
		}
	}
	return fmt.Errorf("prompt: no step titled %q", title)
}

func (r *Runner) promptStep(ctx context.Context, step wizard.Step) error {
	errs := r.ctrl.Store().Errors()
	for _, field := range step.Fields {
		if msg, ok := errs[field.Name]; ok {
			if err := r.driver.Info(ctx, r.styles.Error.Render("! "+msg)); err != nil {
				return err
			}
		}
		if err := r.promptField(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, field wizard.FieldSpec) error {
	store := r.ctrl.Store()
	snapshot := store.Snapshot()
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}

	switch field.Kind {
	case wizard.FieldConfirm:
		v, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: snapshot.Bool(field.Name), Help: field.Help})
		if err != nil {
			return err
		}
		return r.ctrl.SetField(field.Name, v)

	case wizard.FieldSelect:
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, snapshot.String(field.Name)),
			Help:         field.Help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(field.Options) {
			return nil
		}
		return r.ctrl.SetField(field.Name, field.Options[idx])

	case wizard.FieldPassword:
		v, err := r.driver.Password(ctx, InputConfig{Message: label, Default: snapshot.String(field.Name), Help: field.Help})
		if err != nil {
			return err
		}
		return r.ctrl.SetField(field.Name, v)

	case wizard.FieldTextArea:
		v, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: snapshot.String(field.Name), Help: field.Help})
		if err != nil {
			return err
		}
		return r.ctrl.SetField(field.Name, v)

	case wizard.FieldFile:
		return r.promptFile(ctx, field, label)

	default:
		cfg := InputConfig{Message: label, Default: snapshot.String(field.Name), Help: field.Help}
		if fn, ok := r.suggesters[field.Suggest]; ok {
			cfg.Suggest = func(partial string) []string { return fn(ctx, partial) }
		}
		v, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		// numbers stay as typed; validators parse them
		return r.ctrl.SetField(field.Name, strings.TrimSpace(v))
	}
}

// promptFile asks for a path. Blank input keeps the current file; "-"
// clears the slot.
func (r *Runner) promptFile(ctx context.Context, field wizard.FieldSpec, label string) error {
	current := ""
	if ref := r.ctrl.Store().Staged()[field.Name]; ref != nil {
		current = ref.Name
	}
	help := field.Help
	if current != "" {
		help = strings.TrimSpace(help + " (blank keeps " + current + ", - clears)")
	}
	for {
		path, err := r.driver.Input(ctx, InputConfig{Message: label + " (path)", Help: help})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		switch path {
		case "":
			return nil
		case "-":
			return r.ctrl.SetFile(field.Name, nil)
		}
		ref, err := staging.FromPath(path)
		if err == nil {
			err = r.ctrl.SetFile(field.Name, &ref)
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, wizard.ErrClosed) {
			return err
		}
		if infoErr := r.driver.Info(ctx, r.styles.Error.Render("! "+reason(err))); infoErr != nil {
			return infoErr
		}
	}
}

func reason(err error) string {
	var rejection *staging.RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return err.Error()
}
