package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g. Ctrl+C) or chose to
	// cancel the wizard.
	ErrAborted = errors.New("prompt: aborted")
	// ErrAbandoned is returned when the session was torn down from outside,
	// for example after the backend rejected the token.
	ErrAbandoned = errors.New("prompt: wizard abandoned")
)
