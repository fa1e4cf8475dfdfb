package errors

import (
	"errors"
	"net/http"
)

// Domain errors returned by the scheduling core. Handlers map these onto
// HTTP statuses; services wrap them with %w so callers can errors.Is them.
var (
	ErrNotFound          = errors.New("record not found")
	ErrCapacityExceeded  = errors.New("session capacity exceeded")
	ErrDayUnavailable    = errors.New("doctor not available on this day")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrCutoffViolation   = errors.New("cancellation window has closed")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusFor maps a domain error to the HTTP status the API layer should
// answer with. Unknown errors stay internal server errors.
func StatusFor(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrDayUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCutoffViolation):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
