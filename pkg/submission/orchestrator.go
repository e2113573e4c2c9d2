// Package submission runs the final step of a wizard: upload staged
// documents, assemble the backend payload, check it against the API
// contract, and create the record.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/staging"
	"github.com/goliatone/go-rentflow/pkg/storage"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// Mode selects how documents reach the backend.
type Mode int

const (
	// UploadThenCreate uploads each staged document to object storage and
	// embeds the returned URLs in a JSON payload.
	UploadThenCreate Mode = iota
	// Multipart skips object storage; the creator sends the files as parts
	// of the create request.
	Multipart
)

// Assembler turns the snapshot and uploaded document URLs into the payload
// the backend expects.
type Assembler func(snapshot wizard.Snapshot, urls map[string]string) (map[string]any, error)

// Creator issues the create-record request.
type Creator interface {
	Create(ctx context.Context, payload map[string]any, staged map[string]*staging.FileRef) (any, error)
}

// CreatorFunc adapts a function into a Creator.
type CreatorFunc func(ctx context.Context, payload map[string]any, staged map[string]*staging.FileRef) (any, error)

// Create delegates to fn.
func (fn CreatorFunc) Create(ctx context.Context, payload map[string]any, staged map[string]*staging.FileRef) (any, error) {
	return fn(ctx, payload, staged)
}

// PayloadValidator checks an assembled payload before it is sent.
type PayloadValidator interface {
	Validate(operation string, payload any) error
}

// Notifier surfaces the outcome to the user.
type Notifier interface {
	Success(message string)
	Failure(reason string)
}

// Navigator moves the front end away from the wizard after success.
type Navigator interface {
	Navigate(route string)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMode selects UploadThenCreate (default) or Multipart.
func WithMode(mode Mode) Option {
	return func(o *Orchestrator) {
		o.mode = mode
	}
}

// WithUploader sets the document uploader. owner returns the user id used to
// namespace keys; it is read at submit time so a login mid-session is seen.
func WithUploader(up storage.Uploader, owner func() string) Option {
	return func(o *Orchestrator) {
		o.uploader = up
		if owner != nil {
			o.owner = owner
		}
	}
}

// WithContract validates assembled payloads against operation.
func WithContract(v PayloadValidator, operation string) Option {
	return func(o *Orchestrator) {
		o.contract = v
		o.operation = operation
	}
}

// WithNotifier sets the notifier.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithNavigator sets where to go after success.
func WithNavigator(n Navigator, route string) Option {
	return func(o *Orchestrator) {
		o.navigator = n
		o.route = route
	}
}

// WithSuccessMessage overrides the success notification text.
func WithSuccessMessage(msg string) Option {
	return func(o *Orchestrator) {
		if msg != "" {
			o.successMessage = msg
		}
	}
}

// WithFieldNames lists wizard fields that server validation errors may be
// mapped back onto.
func WithFieldNames(names ...string) Option {
	return func(o *Orchestrator) {
		o.fields = append(o.fields, names...)
	}
}

// WithSlotAliases renames staged slots when keying the DocumentURLs map
// (e.g. idDocument -> id_document).
func WithSlotAliases(aliases map[string]string) Option {
	return func(o *Orchestrator) {
		o.aliases = aliases
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator runs submission attempts for one wizard session.
type Orchestrator struct {
	mode           Mode
	assemble       Assembler
	creator        Creator
	uploader       storage.Uploader
	owner          func() string
	contract       PayloadValidator
	operation      string
	notifier       Notifier
	navigator      Navigator
	route          string
	successMessage string
	fields         []string
	aliases        map[string]string
	now            func() time.Time
	logger         *slog.Logger

	inFlight atomic.Bool
	closed   atomic.Bool

	mu      sync.Mutex
	history []Result
}

// New builds an orchestrator around assemble and creator.
func New(assemble Assembler, creator Creator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		assemble:       assemble,
		creator:        creator,
		owner:          func() string { return "" },
		successMessage: "Submitted successfully",
		now:            time.Now,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Submit runs one attempt. It never panics or returns an error; every
// failure is described by the Result.
func (o *Orchestrator) Submit(ctx context.Context, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) Result {
	result := Result{
		AttemptID: uuid.NewString(),
		StartedAt: o.now(),
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		result.Stage = StageGuard
		result.Err = ErrSubmissionInFlight
		result.Reason = "A submission is already in progress."
		result.FinishedAt = o.now()
		return result
	}
	defer o.inFlight.Store(false)

	logger := o.logger.With("attempt", result.AttemptID)
	result = o.run(ctx, logger, result, snapshot, staged)
	result.FinishedAt = o.now()

	o.mu.Lock()
	o.history = append(o.history, result)
	o.mu.Unlock()

	if o.closed.Load() {
		logger.Debug("submission: session closed, skipping notifications", "success", result.Success)
		return result
	}
	if result.Success {
		if o.notifier != nil {
			o.notifier.Success(o.successMessage)
		}
		if o.navigator != nil && o.route != "" {
			o.navigator.Navigate(o.route)
		}
		return result
	}
	if o.notifier != nil {
		o.notifier.Failure(result.Reason)
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, result Result, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) Result {
	fail := func(stage Stage, err error) Result {
		result.Stage = stage
		result.Err = err
		result.Reason = client.Message(err)
		logger.Warn("submission: attempt failed", "stage", stage, "error", err)
		return result
	}

	if o.creator == nil {
		return fail(StageCreate, ErrNoCreator)
	}

	if o.mode == UploadThenCreate {
		urls, err := o.upload(ctx, staged)
		if err != nil {
			return fail(StageUpload, err)
		}
		result.DocumentURLs = urls
	}

	payload := map[string]any{}
	if o.assemble != nil {
		var err error
		payload, err = o.assemble(snapshot.Clone(), cloneURLs(result.DocumentURLs))
		if err != nil {
			return fail(StageAssemble, err)
		}
	}
	if o.contract != nil && o.operation != "" {
		if err := o.contract.Validate(o.operation, payload); err != nil {
			return fail(StageAssemble, err)
		}
	}

	var files map[string]*staging.FileRef
	if o.mode == Multipart {
		files = staged
	}
	record, err := o.creator.Create(ctx, payload, files)
	if err != nil {
		return fail(StageCreate, err)
	}

	result.Success = true
	result.Stage = StageDone
	result.Record = record
	logger.Info("submission: created", "documents", len(result.DocumentURLs))
	return result
}

// upload sends every staged document concurrently and waits for all of them.
func (o *Orchestrator) upload(ctx context.Context, staged map[string]*staging.FileRef) (map[string]string, error) {
	slots := make([]string, 0, len(staged))
	for slot, ref := range staged {
		if ref != nil {
			slots = append(slots, slot)
		}
	}
	if len(slots) == 0 {
		return map[string]string{}, nil
	}
	if o.uploader == nil {
		return nil, ErrNoUploader
	}
	sort.Strings(slots)

	owner := o.owner()
	now := o.now()
	urls := make([]string, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range slots {
		i, slot := i, slot
		ref := *staged[slot]
		g.Go(func() error {
			key := storage.Key(owner, slot, ref.Name, now)
			url, err := o.uploader.Upload(gctx, key, ref)
			if err != nil {
				return fmt.Errorf("upload %s: %w", slot, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(slots))
	for i, slot := range slots {
		out[o.alias(slot)] = urls[i]
	}
	return out, nil
}

func (o *Orchestrator) alias(slot string) string {
	if name, ok := o.aliases[slot]; ok && name != "" {
		return name
	}
	return slot
}

// InFlight reports whether an attempt is running.
func (o *Orchestrator) InFlight() bool {
	return o.inFlight.Load()
}

// History returns every completed attempt in order.
func (o *Orchestrator) History() []Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Result(nil), o.history...)
}

// Close marks the session torn down. Attempts already running still
// finish but no longer notify or navigate.
func (o *Orchestrator) Close() {
	o.closed.Store(true)
}

// AsSubmitter exposes the orchestrator to a wizard.Controller.
func (o *Orchestrator) AsSubmitter() wizard.Submitter {
	return wizard.SubmitterFunc(func(ctx context.Context, snapshot wizard.Snapshot, staged map[string]*staging.FileRef) wizard.Outcome {
		result := o.Submit(ctx, snapshot, staged)
		outcome := wizard.Outcome{
			Submitted: result.Success,
			Reason:    result.Reason,
			Detail:    result,
		}
		if !result.Success && result.Err != nil && len(o.fields) > 0 {
			fields, _ := client.FieldErrors(result.Err, o.fields)
			if len(fields) > 0 {
				outcome.FieldErrors = wizard.ErrorMap(fields)
			}
		}
		return outcome
	})
}

func cloneURLs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// IsInFlight reports whether err came from the re-entrancy guard.
func IsInFlight(err error) bool {
	return errors.Is(err, ErrSubmissionInFlight)
}
