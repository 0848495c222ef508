package lib

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the known failure classes of the danshi backend.
// Callers match with errors.Is and decide how to surface each one.
var (
	ErrNotFound     = errors.New("the requested resource was not found")
	ErrUnauthorized = errors.New("the session is not authorized")
	ErrForbidden    = errors.New("you do not have permission to perform this action")
	ErrRateLimited  = errors.New("too many requests")
	ErrInvalidInput = errors.New("the request was rejected as invalid")
	ErrServer       = errors.New("the server reported an internal error")
)

// APIError carries the HTTP status and server-provided message of a failed
// request. It wraps one of the sentinel errors above so callers can branch
// on the failure class without inspecting status codes.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidInput
	}
	return ErrServer
}

// ErrorFromResponse converts a non-2xx HTTP status into an APIError.
// It returns nil for successful statuses.
func ErrorFromResponse(statusCode int, message string) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return &APIError{StatusCode: statusCode, Message: message}
}

// IsRetriable reports whether a failed request may be retried by the user.
// Validation failures are not; everything else is worth a manual retry.
func IsRetriable(err error) bool {
	return err != nil && !errors.Is(err, ErrInvalidInput)
}
