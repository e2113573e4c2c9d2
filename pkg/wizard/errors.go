package wizard

import "errors"

var (
	// ErrClosed is returned by mutators after the session was torn down.
	ErrClosed = errors.New("wizard: session closed")
	// ErrFieldName signals an empty field or slot name.
	ErrFieldName = errors.New("wizard: field name is required")
	// ErrSubmitted is returned when navigating a wizard that already
	// completed its submission.
	ErrSubmitted = errors.New("wizard: already submitted")
	// ErrBusy is returned by JumpTo while a submission is in flight.
	ErrBusy = errors.New("wizard: submission in progress")
	// ErrStepRange is returned by JumpTo for indices outside the effective
	// sequence.
	ErrStepRange = errors.New("wizard: step out of range")
	// ErrNoSubmitter is returned when the last step validates but no
	// submitter was configured.
	ErrNoSubmitter = errors.New("wizard: no submitter configured")
)
