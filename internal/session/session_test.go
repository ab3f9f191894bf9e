package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/subtrack/internal/api"
	"github.com/mmynk/subtrack/internal/auth"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/storage"
	"github.com/mmynk/subtrack/internal/storage/sqlite"
)

// Ensure Manager can feed the API bearer interceptor
var _ api.TokenSource = (*Manager)(nil)

type stubAuthenticator struct {
	session *models.Session
	err     error
}

func (s *stubAuthenticator) Login(ctx context.Context, creds auth.Credentials) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubAuthenticator) Register(ctx context.Context, reg auth.Registration) (*models.User, error) {
	return &models.User{Name: reg.Name, Email: reg.Email}, nil
}

// failingStore wraps a real store and fails writes on demand.
type failingStore struct {
	storage.SessionStore
	failSave  bool
	failClear bool
}

func (f *failingStore) SaveSession(ctx context.Context, s *models.Session) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.SessionStore.SaveSession(ctx, s)
}

func (f *failingStore) ClearSession(ctx context.Context) error {
	if f.failClear {
		return errors.New("disk gone")
	}
	return f.SessionStore.ClearSession(ctx)
}

func openStore(t *testing.T, path string) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func validSession() *models.Session {
	return &models.Session{
		Token: "tok-123",
		User:  &models.User{Name: "Asha", Email: "asha@example.com"},
	}
}

func TestManager_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "session.db")

	m := NewManager(openStore(t, dbPath), &stubAuthenticator{session: validSession()}, nil)
	if m.IsAuthenticated() {
		t.Fatal("new manager must start signed out")
	}

	if _, err := m.Login(ctx, auth.Credentials{Email: "asha@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Fatal("expected authenticated after login")
	}
	if m.Token() != "tok-123" {
		t.Errorf("token = %q", m.Token())
	}

	// Simulate a restart with a fresh manager on the same database.
	restarted := NewManager(openStore(t, dbPath), &stubAuthenticator{}, nil)
	if err := restarted.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !restarted.IsAuthenticated() {
		t.Fatal("expected session to survive restart")
	}
	if restarted.User().Email != "asha@example.com" {
		t.Errorf("restored email = %q", restarted.User().Email)
	}
}

func TestManager_LoginInvalidCredentials(t *testing.T) {
	m := NewManager(openStore(t, filepath.Join(t.TempDir(), "s.db")),
		&stubAuthenticator{err: auth.ErrInvalidCredentials}, nil)

	_, err := m.Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "wrong!"})
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("failed login must not authenticate")
	}
}

func TestManager_LoginPersistFailureKeepsMemoryUnchanged(t *testing.T) {
	store := &failingStore{SessionStore: openStore(t, filepath.Join(t.TempDir(), "s.db")), failSave: true}
	m := NewManager(store, &stubAuthenticator{session: validSession()}, nil)

	if _, err := m.Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "secret1"}); err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if m.IsAuthenticated() || m.Token() != "" || m.User() != nil {
		t.Error("memory must not diverge from the durable store")
	}
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "s.db"))
	m := NewManager(store, &stubAuthenticator{session: validSession()}, nil)

	if _, err := m.Login(ctx, auth.Credentials{Email: "asha@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	m.Logout(ctx)

	if m.IsAuthenticated() {
		t.Error("expected signed out after logout")
	}
	if m.Token() != "" || m.User() != nil || m.Session() != nil {
		t.Error("expected token and user cleared")
	}
	if _, err := store.LoadSession(ctx); !errors.Is(err, storage.ErrNoSession) {
		t.Errorf("expected persisted session cleared, got %v", err)
	}
}

func TestManager_LogoutNeverFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{SessionStore: openStore(t, filepath.Join(t.TempDir(), "s.db")), failClear: true}
	m := NewManager(store, &stubAuthenticator{session: validSession()}, nil)

	if _, err := m.Login(ctx, auth.Credentials{Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	m.Logout(ctx)
	if m.IsAuthenticated() {
		t.Error("logout must clear memory even when storage fails")
	}

	// Logging out while signed out is a no-op.
	m.Logout(ctx)
}

func TestManager_RestoreRetriesFailedClear(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{SessionStore: openStore(t, filepath.Join(t.TempDir(), "s.db")), failClear: true}
	m := NewManager(store, &stubAuthenticator{session: validSession()}, nil)

	if _, err := m.Login(ctx, auth.Credentials{Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	m.Logout(ctx)
	if _, err := store.LoadSession(ctx); err != nil {
		t.Fatalf("expected the token to survive the failed clear, got %v", err)
	}

	if err := m.Restore(ctx); err == nil {
		t.Error("expected Restore to report the failed clear")
	}
	if m.IsAuthenticated() {
		t.Fatal("stale token was restored after logout")
	}

	store.failClear = false
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("expected signed out after the retried clear")
	}
	if _, err := store.LoadSession(ctx); !errors.Is(err, storage.ErrNoSession) {
		t.Errorf("expected persisted session cleared, got %v", err)
	}

	// Once cleared, a later Restore behaves normally.
	if err := m.Restore(ctx); err != nil {
		t.Errorf("Restore failed: %v", err)
	}
}

func TestManager_SessionIsACopy(t *testing.T) {
	m := NewManager(openStore(t, filepath.Join(t.TempDir(), "s.db")), &stubAuthenticator{session: validSession()}, nil)
	if _, err := m.Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	s := m.Session()
	s.Token = "tampered"
	s.User.Email = "tampered"

	if m.Token() != "tok-123" || m.User().Email != "asha@example.com" {
		t.Error("callers must not be able to mutate the held session")
	}
}
