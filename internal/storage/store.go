// Package storage provides abstractions for durable client-side state.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/subtrack/internal/models"
)

// ErrNoSession is returned by LoadSession when nothing has been persisted.
var ErrNoSession = errors.New("no persisted session")

// SessionStore defines the interface for session persistence.
// This abstraction allows swapping storage backends (SQLite, keychain, etc.)
// without changing the session layer.
type SessionStore interface {
	// LoadSession returns the persisted session.
	// Returns ErrNoSession if nothing is stored.
	LoadSession(ctx context.Context) (*models.Session, error)

	// SaveSession atomically replaces the stored token and user.
	SaveSession(ctx context.Context, session *models.Session) error

	// ClearSession atomically removes the stored token and user.
	// Clearing an empty store is not an error.
	ClearSession(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
