package session

import (
	"context"
	"errors"
	"fmt"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/logger"
)

// Status reports the lifecycle state of the persisted session
type Status string

const (
	StatusNoSession Status = "no_session"
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
)

// Authenticator performs the network side of the session lifecycle. The
// Instagram client implements it.
type Authenticator interface {
	// Login performs the full authentication handshake and returns a new session
	Login(ctx context.Context, username, password string) (*Session, error)
	// Probe performs a cheap authenticated call to check that the session
	// is still accepted, without consuming scrape budget
	Probe(ctx context.Context, sess *Session) error
	// Logout tells the service to revoke the session; best effort
	Logout(ctx context.Context, sess *Session) error
}

// Manager orchestrates login, status checks and logout over the durable
// session store
type Manager struct {
	store  *Store
	auth   Authenticator
	logger logger.Logger
}

// NewManager creates a session lifecycle manager
func NewManager(store *Store, auth Authenticator, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{store: store, auth: auth, logger: log}
}

// Current loads the persisted session, preferring a valid one. Callers that
// need a usable session for scraping go through here.
func (m *Manager) Current() (*Session, error) {
	return m.store.Load()
}

// Login performs a full authentication handshake and persists the resulting
// session. An existing session, valid or not, is replaced.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	m.logger.InfoWithFields("attempting fresh login", map[string]interface{}{
		"username": username,
	})

	sess, err := m.auth.Login(ctx, username, password)
	if err != nil {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeAuthFailed {
			m.logger.ErrorWithFields("login rejected", map[string]interface{}{
				"username": username,
				"reason":   string(apiErr.Reason),
			})
			return nil, err
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("login succeeded but session could not be persisted: %w", err)
	}

	m.logger.InfoWithFields("login successful, session saved", map[string]interface{}{
		"username": sess.Username,
		"user_id":  sess.UserID,
	})

	return sess, nil
}

// Status reports whether a usable session exists. A present session is
// probed with a cheap authenticated call; if the probe discovers expiry the
// persisted record is updated to reflect it.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	sess, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return StatusNoSession, nil
		}
		return StatusNoSession, err
	}

	if !sess.IsValid() {
		return StatusInvalid, nil
	}

	if err := m.auth.Probe(ctx, sess); err != nil {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) && (apiErr.Type == errs.ErrorTypeSessionExpired || apiErr.Type == errs.ErrorTypeAuthFailed) {
			m.logger.WarnWithFields("session probe discovered expiry", map[string]interface{}{
				"username": sess.Username,
			})
			sess.MarkInvalid()
			if saveErr := m.store.Save(sess); saveErr != nil {
				m.logger.WithError(saveErr).Error("failed to persist invalidated session")
			}
			return StatusInvalid, nil
		}
		// Probe failures that are not auth verdicts leave persisted state alone
		return StatusValid, fmt.Errorf("session probe inconclusive: %w", err)
	}

	return StatusValid, nil
}

// PersistInvalid records a validity flip discovered during scraping. The
// executor only flips the in-memory flag; this writes it through.
func (m *Manager) PersistInvalid(sess *Session) error {
	if sess == nil {
		return nil
	}
	sess.MarkInvalid()
	return m.store.Save(sess)
}

// Logout revokes the remote session if one exists and deletes the durable
// record. It is idempotent: calling it with no stored session succeeds.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.store.Load()
	if err == nil && sess.IsValid() {
		if err := m.auth.Logout(ctx, sess); err != nil {
			m.logger.WithError(err).Warn("remote logout failed, deleting local session anyway")
		}
	}

	if err := m.store.Invalidate(); err != nil {
		return err
	}

	m.logger.Info("logged out and session cleared")
	return nil
}
