package jobapi

import (
	"fmt"

	"github.com/shopsmart/backend/internal/domain"
)

// StatusError is returned when the job service answers with a non-2xx status
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Unwrap lets callers match any status failure with errors.Is(err, domain.ErrCollaborator)
func (e *StatusError) Unwrap() error {
	return domain.ErrCollaborator
}
