// Package auth exchanges credentials for a session token.
package auth

import (
	"context"
	"errors"

	"github.com/mmynk/subtrack/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
)

// Credentials are what the login form collects.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is what the sign-up form collects.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the remote API for a stub in tests
// without changing the session layer.
type Authenticator interface {
	// Login verifies the credentials and returns a session holding the
	// token and user. Returns ErrInvalidCredentials when they are rejected.
	Login(ctx context.Context, creds Credentials) (*models.Session, error)

	// Register creates a new account. It does not sign the user in.
	// Returns ErrEmailExists if the email is taken.
	Register(ctx context.Context, reg Registration) (*models.User, error)
}
