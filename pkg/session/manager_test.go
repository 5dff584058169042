package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/logger"
)

// fakeAuthenticator scripts the network side of the lifecycle
type fakeAuthenticator struct {
	loginSession *Session
	loginErr     error
	probeErr     error
	logoutErr    error

	loginCalls  int
	probeCalls  int
	logoutCalls int
}

func (f *fakeAuthenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginSession, nil
}

func (f *fakeAuthenticator) Probe(ctx context.Context, sess *Session) error {
	f.probeCalls++
	return f.probeErr
}

func (f *fakeAuthenticator) Logout(ctx context.Context, sess *Session) error {
	f.logoutCalls++
	return f.logoutErr
}

func newTestManager(t *testing.T, auth *fakeAuthenticator) (*Manager, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session.json"), logger.NewTestLogger())
	return NewManager(store, auth, logger.NewTestLogger()), store
}

func TestManagerLoginPersistsSession(t *testing.T) {
	auth := &fakeAuthenticator{loginSession: testSession("alice")}
	manager, store := newTestManager(t, auth)

	sess, err := manager.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sess.Username != "alice" {
		t.Errorf("Expected session for alice, got %s", sess.Username)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Expected session to be persisted, got %v", err)
	}
	if loaded.Username != "alice" || !loaded.IsValid() {
		t.Error("Persisted session does not match the login result")
	}
}

func TestManagerLoginAuthFailurePassesThrough(t *testing.T) {
	auth := &fakeAuthenticator{
		loginErr: errs.NewAuthFailed(errs.ReasonBadCredentials, "wrong password", 400),
	}
	manager, store := newTestManager(t, auth)

	_, err := manager.Login(context.Background(), "alice", "wrong")
	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Reason != errs.ReasonBadCredentials {
		t.Fatalf("Expected typed bad-credentials error, got %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Error("Failed login must not persist a session")
	}
}

func TestManagerStatusNoSession(t *testing.T) {
	manager, _ := newTestManager(t, &fakeAuthenticator{})

	status, err := manager.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != StatusNoSession {
		t.Errorf("Expected %s, got %s", StatusNoSession, status)
	}
}

func TestManagerStatusValid(t *testing.T) {
	auth := &fakeAuthenticator{}
	manager, store := newTestManager(t, auth)
	if err := store.Save(testSession("alice")); err != nil {
		t.Fatal(err)
	}

	status, err := manager.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != StatusValid {
		t.Errorf("Expected %s, got %s", StatusValid, status)
	}
	if auth.probeCalls != 1 {
		t.Errorf("Expected exactly one probe, got %d", auth.probeCalls)
	}
}

func TestManagerStatusProbeDiscoversExpiry(t *testing.T) {
	auth := &fakeAuthenticator{
		probeErr: errs.New(errs.ErrorTypeSessionExpired, "login_required", 403),
	}
	manager, store := newTestManager(t, auth)
	if err := store.Save(testSession("alice")); err != nil {
		t.Fatal(err)
	}

	status, err := manager.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != StatusInvalid {
		t.Errorf("Expected %s, got %s", StatusInvalid, status)
	}

	// The discovered expiry must be written through to disk
	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.IsValid() {
		t.Error("Expected the persisted record to be marked invalid")
	}
}

func TestManagerStatusInconclusiveProbeLeavesStateAlone(t *testing.T) {
	auth := &fakeAuthenticator{
		probeErr: errs.New(errs.ErrorTypeNetwork, "connection refused", 0),
	}
	manager, store := newTestManager(t, auth)
	if err := store.Save(testSession("alice")); err != nil {
		t.Fatal(err)
	}

	status, err := manager.Status(context.Background())
	if status != StatusValid {
		t.Errorf("Expected %s for an inconclusive probe, got %s", StatusValid, status)
	}
	if err == nil {
		t.Error("Expected the probe error to be reported")
	}

	loaded, lerr := store.Load()
	if lerr != nil {
		t.Fatal(lerr)
	}
	if !loaded.IsValid() {
		t.Error("Inconclusive probe must not flip the persisted validity")
	}
}

func TestManagerPersistInvalid(t *testing.T) {
	manager, store := newTestManager(t, &fakeAuthenticator{})

	sess := testSession("alice")
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	if err := manager.PersistInvalid(sess); err != nil {
		t.Fatalf("PersistInvalid failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.IsValid() {
		t.Error("Expected invalid flag to be persisted")
	}
}

func TestManagerLogoutRevokesAndClears(t *testing.T) {
	auth := &fakeAuthenticator{}
	manager, store := newTestManager(t, auth)
	if err := store.Save(testSession("alice")); err != nil {
		t.Fatal(err)
	}

	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if auth.logoutCalls != 1 {
		t.Errorf("Expected one remote logout, got %d", auth.logoutCalls)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Error("Expected the session record to be deleted")
	}
}

func TestManagerLogoutIdempotent(t *testing.T) {
	auth := &fakeAuthenticator{}
	manager, _ := newTestManager(t, auth)

	// No stored session at all
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout with no session must succeed, got %v", err)
	}
	if auth.logoutCalls != 0 {
		t.Error("No remote logout expected without a stored session")
	}

	// And twice in a row
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Repeated logout must succeed, got %v", err)
	}
}

func TestManagerLogoutSurvivesRemoteFailure(t *testing.T) {
	auth := &fakeAuthenticator{
		logoutErr: errs.New(errs.ErrorTypeNetwork, "connection reset", 0),
	}
	manager, store := newTestManager(t, auth)
	if err := store.Save(testSession("alice")); err != nil {
		t.Fatal(err)
	}

	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must succeed despite remote failure, got %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Error("Local record must be deleted even when remote revocation fails")
	}
}
