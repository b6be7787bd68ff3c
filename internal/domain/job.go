package domain

import "time"

// JobStatus is a snapshot of the remote job, superseded by each poll
type JobStatus struct {
	IsRunning  bool   `json:"is_running"`
	Progress   int    `json:"progress"` // 0-100
	Message    string `json:"message"`
	LastSearch string `json:"last_search,omitempty"`
}

// Done reports whether the remote job finished successfully
func (s JobStatus) Done() bool {
	return !s.IsRunning && s.Progress == 100
}

// Stopped reports whether the remote job is idle without having finished
func (s JobStatus) Stopped() bool {
	return !s.IsRunning && s.Progress < 100
}

// SubmitRequest is the body of a submit-job call.
// A nil Websites means "all sites".
type SubmitRequest struct {
	Query    string   `json:"query"`
	Websites []string `json:"websites,omitempty"`
}

// ExportResult is the acknowledgement of an export request
type ExportResult struct {
	Filename string `json:"filename" yaml:"filename"`
	Count    int    `json:"count" yaml:"count"`
}

// SessionState is the lifecycle state of a search session
type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateAwaitingSubmission SessionState = "awaiting_submission"
	StateSubmitting         SessionState = "submitting"
	StatePolling            SessionState = "polling"
	StateCompleted          SessionState = "completed"
	StateFailed             SessionState = "failed"
)

// Active reports whether a job is in flight in this state
func (s SessionState) Active() bool {
	return s == StateSubmitting || s == StatePolling
}

// SessionSnapshot is a read-only view of a session's lifecycle
type SessionSnapshot struct {
	State        SessionState `json:"state"`
	Status       JobStatus    `json:"status"`
	Query        string       `json:"query,omitempty"`
	Error        string       `json:"error,omitempty"`
	ProductCount int          `json:"productCount"`
	SkippedTicks int          `json:"skippedTicks"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
