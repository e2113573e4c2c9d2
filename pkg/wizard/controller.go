package wizard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-rentflow/pkg/staging"
)

// Move reports what a navigation call did.
type Move int

const (
	// MoveNone means validation failed and the index did not change.
	MoveNone Move = iota
	// MoveAdvanced means the controller moved to the next step.
	MoveAdvanced
	// MoveBack means the controller moved to an earlier step.
	MoveBack
	// MoveSubmitted means the final step submitted successfully.
	MoveSubmitted
	// MoveSubmitFailed means submission failed; the wizard stays on the
	// final step with its data intact.
	MoveSubmitFailed
	// MoveBusy means a submission is already in flight.
	MoveBusy
)

func (m Move) String() string {
	switch m {
	case MoveNone:
		return "none"
	case MoveAdvanced:
		return "advanced"
	case MoveBack:
		return "back"
	case MoveSubmitted:
		return "submitted"
	case MoveSubmitFailed:
		return "submit-failed"
	case MoveBusy:
		return "busy"
	default:
		return fmt.Sprintf("move(%d)", int(m))
	}
}

// Outcome is what a Submitter reports back to the controller.
type Outcome struct {
	Submitted bool
	Reason    string
	// FieldErrors carries server-side validation messages that map onto
	// wizard fields.
	FieldErrors ErrorMap
	// Detail holds the submitter specific result for callers.
	Detail any
}

// Submitter performs the final submission.
type Submitter interface {
	Submit(ctx context.Context, snapshot Snapshot, staged map[string]*staging.FileRef) Outcome
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, snapshot Snapshot, staged map[string]*staging.FileRef) Outcome

// Submit delegates to fn.
func (fn SubmitterFunc) Submit(ctx context.Context, snapshot Snapshot, staged map[string]*staging.FileRef) Outcome {
	return fn(ctx, snapshot, staged)
}

// State is a read-only view published to observers.
type State struct {
	Flow       string
	Index      int
	Total      int
	Step       Step
	Submitting bool
	Submitted  bool
	Errors     ErrorMap
}

// Last reports whether the current step is the final one.
func (s State) Last() bool {
	return s.Index == s.Total
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the final-step submitter.
func WithSubmitter(sub Submitter) Option {
	return func(c *Controller) {
		c.submitter = sub
	}
}

// WithLogger routes controller diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller is the step state machine for a single wizard session. All
// mutation of the snapshot flows through it.
type Controller struct {
	mu         sync.Mutex
	flow       Flow
	store      *Store
	submitter  Submitter
	logger     *slog.Logger
	branch     map[string]struct{}
	steps      []Step
	index      int
	submitting bool
	submitted  bool
	last       Outcome
	observers  []func(State)
}

// NewController builds a controller positioned on step 1.
func NewController(flow Flow, store *Store, options ...Option) (*Controller, error) {
	if err := flow.Check(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewStore()
	}
	c := &Controller{
		flow:   flow,
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		branch: make(map[string]struct{}),
		index:  1,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	for _, name := range flow.BranchFields() {
		c.branch[name] = struct{}{}
	}
	steps, err := flow.Effective(store.Snapshot())
	if err != nil {
		return nil, err
	}
	c.steps = steps
	return c, nil
}

// Store exposes the session store for read access.
func (c *Controller) Store() *Store {
	return c.store
}

// Flow returns the flow definition.
func (c *Controller) Flow() Flow {
	return c.flow
}

// SetField edits a value. Edits to a branch field recompute the effective
// step sequence; other edits never do.
func (c *Controller) SetField(name string, value any) error {
	if err := c.store.SetField(name, value); err != nil {
		return err
	}
	if _, ok := c.branch[name]; ok {
		if err := c.recompute(); err != nil {
			return err
		}
	}
	c.publish()
	return nil
}

// SetFile stages a document. A rejection is recorded in the error map and
// returned for display; it never moves the controller.
func (c *Controller) SetFile(slot string, file *staging.FileRef) error {
	err := c.store.SetFile(slot, file)
	c.publish()
	return err
}

func (c *Controller) recompute() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps, err := c.flow.Effective(c.store.Snapshot())
	if err != nil {
		return err
	}
	currentID := ""
	if c.index >= 1 && c.index <= len(c.steps) {
		currentID = c.steps[c.index-1].ID
	}
	c.steps = steps
	for _, step := range steps {
		if step.ID == currentID {
			c.index = step.Index
			return nil
		}
	}
	if c.index > len(steps) {
		c.index = len(steps)
	}
	c.logger.Debug("wizard: step sequence changed", "flow", c.flow.Name, "steps", len(steps))
	return nil
}

// Next validates the current step. On success it advances, or submits when
// the step is the last one.
func (c *Controller) Next(ctx context.Context) (Move, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return MoveNone, ErrSubmitted
	}
	if c.submitting {
		c.mu.Unlock()
		return MoveBusy, nil
	}
	step := c.steps[c.index-1]
	c.mu.Unlock()

	snapshot := c.store.Snapshot()
	staged := c.store.Staged()
	errs := step.Validate(snapshot, staged)
	// a rejected upload outranks the validator's view of the slot
	rejected := c.store.Rejections()
	for _, slot := range step.Slots() {
		if reason, ok := rejected[slot]; ok {
			errs[slot] = reason
		}
	}
	if !errs.Empty() {
		c.store.SetErrors(errs)
		c.logger.Debug("wizard: step invalid", "flow", c.flow.Name, "step", step.ID, "fields", errs.Fields())
		c.publish()
		return MoveNone, nil
	}
	c.store.SetErrors(ErrorMap{})

	c.mu.Lock()
	if c.index < len(c.steps) {
		c.index++
		c.mu.Unlock()
		c.publish()
		return MoveAdvanced, nil
	}
	if c.submitter == nil {
		c.mu.Unlock()
		return MoveNone, ErrNoSubmitter
	}
	if c.submitting {
		c.mu.Unlock()
		return MoveBusy, nil
	}
	c.submitting = true
	c.mu.Unlock()
	c.publish()

	outcome := c.submitter.Submit(ctx, snapshot, staged)

	c.mu.Lock()
	c.submitting = false
	c.last = outcome
	if c.store.Closed() {
		c.mu.Unlock()
		c.logger.Debug("wizard: dropping result for closed session", "flow", c.flow.Name)
		if outcome.Submitted {
			return MoveSubmitted, nil
		}
		return MoveSubmitFailed, nil
	}
	if outcome.Submitted {
		c.submitted = true
		c.mu.Unlock()
		c.publish()
		return MoveSubmitted, nil
	}
	c.mu.Unlock()
	if len(outcome.FieldErrors) > 0 {
		c.store.SetErrors(outcome.FieldErrors)
	}
	c.logger.Info("wizard: submission failed", "flow", c.flow.Name, "reason", outcome.Reason)
	c.publish()
	return MoveSubmitFailed, nil
}

// Back moves to the previous step without validating. It stays on step 1.
func (c *Controller) Back() (Move, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return MoveNone, ErrSubmitted
	}
	if c.submitting || c.index <= 1 {
		c.mu.Unlock()
		return MoveNone, nil
	}
	c.index--
	c.mu.Unlock()
	c.publish()
	return MoveBack, nil
}

// JumpTo moves to index without gating. It backs the review step's edit
// links.
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return ErrSubmitted
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	if index < 1 || index > len(c.steps) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrStepRange, index, len(c.steps))
	}
	c.index = index
	c.mu.Unlock()
	c.publish()
	return nil
}

// JumpToStep moves to the step with the given id.
func (c *Controller) JumpToStep(id string) error {
	c.mu.Lock()
	target := 0
	for _, step := range c.steps {
		if step.ID == id {
			target = step.Index
			break
		}
	}
	c.mu.Unlock()
	if target == 0 {
		return fmt.Errorf("%w: step %q is not in the sequence", ErrStepRange, id)
	}
	return c.JumpTo(target)
}

// Index returns the current 1-based step index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Current returns the current step.
func (c *Controller) Current() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.index-1]
}

// Steps returns the effective step sequence.
func (c *Controller) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Step(nil), c.steps...)
}

// Submitted reports whether the wizard reached its terminal state.
func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// LastOutcome returns the result of the most recent submission attempt.
func (c *Controller) LastOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// State snapshots the controller for display.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Flow:       c.flow.Name,
		Index:      c.index,
		Total:      len(c.steps),
		Step:       c.steps[c.index-1],
		Submitting: c.submitting,
		Submitted:  c.submitted,
		Errors:     c.store.Errors(),
	}
}

// Observe registers fn to receive the state after every transition or edit.
func (c *Controller) Observe(fn func(State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) publish() {
	if c.store.Closed() {
		return
	}
	c.mu.Lock()
	if len(c.observers) == 0 {
		c.mu.Unlock()
		return
	}
	state := c.stateLocked()
	observers := append([]func(State){}, c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

// Close tears the session down; pending submissions may still finish but
// their results are not applied.
func (c *Controller) Close() {
	c.store.Close()
	c.mu.Lock()
	c.observers = nil
	c.mu.Unlock()
}
