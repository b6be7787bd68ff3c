package domain

import "errors"

var (
	// ErrValidation is returned when a request is rejected before any network call
	ErrValidation = errors.New("validation failed")

	// ErrJobSubmit is returned when the comparison job could not be submitted
	ErrJobSubmit = errors.New("job submission failed")

	// ErrPollTransient marks a status or results fetch that failed while polling
	ErrPollTransient = errors.New("transient polling failure")

	// ErrExport is returned when the export request fails
	ErrExport = errors.New("export failed")

	// ErrJobActive is returned when a submission arrives while a job is in progress
	ErrJobActive = errors.New("a comparison job is already active")

	// ErrInvalidTransition is returned when an operation is not allowed in the current state
	ErrInvalidTransition = errors.New("operation not allowed in current state")

	// ErrJobStalled is returned when the remote job stopped without reaching 100%
	ErrJobStalled = errors.New("job stopped before completion")

	// ErrSessionClosed is returned by every operation on a torn-down session
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrCollaborator is returned when the remote job service request fails
	ErrCollaborator = errors.New("job service request failed")

	// ErrCancelled is returned when a submission is cancelled before it was acknowledged
	ErrCancelled = errors.New("job cancelled")

	// ErrNoResults is returned by the job service when there is nothing to export
	ErrNoResults = errors.New("no results available")
)
