package submission

import (
	"errors"
	"time"
)

// Stage names the phase a submission attempt stopped in.
type Stage string

const (
	StageGuard    Stage = "guard"
	StageUpload   Stage = "upload"
	StageAssemble Stage = "assemble"
	StageCreate   Stage = "create"
	StageDone     Stage = "done"
)

var (
	// ErrSubmissionInFlight is reported when Submit is called while another
	// attempt from the same orchestrator is still running.
	ErrSubmissionInFlight = errors.New("submission: a submission is already in progress")
	// ErrNoCreator is reported when the orchestrator has nothing to create
	// the record with.
	ErrNoCreator = errors.New("submission: creator is not configured")
	// ErrNoUploader is reported when documents are staged but no uploader
	// is configured.
	ErrNoUploader = errors.New("submission: uploader is not configured")
)

// Result is the outcome of one submission attempt. Retrying creates a new
// Result with a new AttemptID.
type Result struct {
	AttemptID    string
	StartedAt    time.Time
	FinishedAt   time.Time
	Success      bool
	Record       any
	DocumentURLs map[string]string
	Reason       string
	Stage        Stage
	Err          error
}

// Failed reports whether the attempt failed.
func (r Result) Failed() bool {
	return !r.Success
}
