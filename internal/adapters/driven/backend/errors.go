package backend

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

// StatusError is returned when the backend answers with a non-success status.
// It matches domain.ErrTransport, and domain.ErrNotFound for 404 responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is a domain error this status maps to.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrTransport:
		return true
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}
