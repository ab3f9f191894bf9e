package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound matches an HTTPError with status 404.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized matches an HTTPError with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTimeout matches a TimeoutError.
	ErrTimeout = errors.New("request timed out")
)

// HTTPError is returned when the server answers with a non-2xx status.
type HTTPError struct {
	Status int

	// Message is taken from the response body's "message" (or "error")
	// field, falling back to the status text.
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Is lets errors.Is match status-based sentinels without unwrapping.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// TimeoutError is returned when no response arrives within the client timeout.
// It is distinct from HTTPError: the server never answered.
type TimeoutError struct {
	Method string
	Path   string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: no response after %s", e.Method, e.Path, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// errorBody is the error payload shape the API uses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
