package forms

import (
	"errors"

	"github.com/mmynk/subtrack/internal/api"
	"github.com/mmynk/subtrack/internal/auth"
)

// Fallback texts for operations whose failure carries no usable message.
const (
	FallbackSave   = "Failed to save subscription"
	FallbackDelete = "Failed to delete subscription"
	FallbackLoad   = "Failed to load subscription"
	FallbackLogin  = "Login failed"
)

// Message returns the user-facing text for err, or fallback when err
// carries nothing presentable. A nil error yields "".
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	switch {
	case errors.Is(err, api.ErrTimeout):
		return "Request timed out"
	case errors.Is(err, api.ErrNotFound):
		return "No such item"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrEmailExists):
		return "An account with this email already exists"
	}

	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
