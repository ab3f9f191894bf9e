// Package session holds the signed-in user's token and profile and keeps
// them in step with durable storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/subtrack/internal/auth"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/storage"
)

// Manager is the session store. It is constructed once and passed to
// whatever needs the token; there is no package-level session.
//
// Every mutation writes the durable store first and memory second, so a
// failed write never leaves memory ahead of disk.
type Manager struct {
	mu            sync.RWMutex
	current       *models.Session
	clearPending  bool
	store         storage.SessionStore
	authenticator auth.Authenticator
	logger        *slog.Logger
}

// NewManager creates a signed-out manager. Call Restore to load a
// previously persisted session.
func NewManager(store storage.SessionStore, authenticator auth.Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:         store,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Restore loads the persisted session, if any. After a Logout whose
// durable clear failed, Restore retries the clear instead and stays
// signed out.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearPending {
		if err := m.store.ClearSession(ctx); err != nil {
			return fmt.Errorf("failed to clear stale session: %w", err)
		}
		m.clearPending = false
		m.logger.Info("Cleared stale session")
		return nil
	}

	persisted, err := m.store.LoadSession(ctx)
	if errors.Is(err, storage.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	m.current = persisted

	m.logger.Debug("Session restored", "email", persisted.User.DisplayName())
	return nil
}

// Login exchanges credentials for a token and persists the result.
// Returns auth.ErrInvalidCredentials when the server rejects them.
func (m *Manager) Login(ctx context.Context, creds auth.Credentials) (*models.Session, error) {
	issued, err := m.authenticator.Login(ctx, creds)
	if err != nil {
		m.logger.Warn("Login failed", "email", creds.Email, "error", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveSession(ctx, issued); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.current = copySession(issued)
	m.clearPending = false

	attrs := []any{"email", creds.Email}
	if exp, err := auth.TokenExpiry(issued.Token); err == nil {
		attrs = append(attrs, "expires_in", time.Until(exp).Round(time.Minute))
	}
	m.logger.Info("Logged in", attrs...)

	return copySession(issued), nil
}

// Logout clears the token and user. It never fails: memory is always
// cleared, and a durable-store error is logged and the clear is retried
// by the next Restore.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearPending = false
	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.Error("Failed to clear persisted session", "error", err)
		m.clearPending = true
	}
	m.current = nil
	m.logger.Info("Logged out")
}

// IsAuthenticated reports whether a token is held. It never touches the
// network.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Authenticated()
}

// Token returns the bearer token, or "" when signed out.
// Manager satisfies api.TokenSource through this method.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.User == nil {
		return nil
	}
	u := *m.current.User
	return &u
}

// Session returns a copy of the current session, or nil when signed out.
func (m *Manager) Session() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.current)
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	out := &models.Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
