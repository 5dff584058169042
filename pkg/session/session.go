package session

import (
	"time"

	"github.com/google/uuid"
)

// Cookie names that make up the session's credential material
const (
	CookieSessionID = "sessionid"
	CookieCSRFToken = "csrftoken"
	CookieUserID    = "ds_user_id"
	CookieMachineID = "mid"
)

// Session is one authenticated identity reused across runs. The cookie set
// is the opaque credential material; the device ID stays stable for the
// lifetime of the session so the device fingerprint does not change between
// runs.
type Session struct {
	Username  string            `json:"username"`
	UserID    string            `json:"user_id"`
	DeviceID  string            `json:"device_id"`
	UserAgent string            `json:"user_agent"`
	Cookies   map[string]string `json:"cookies"`
	CreatedAt time.Time         `json:"created_at"`
	Valid     bool              `json:"valid"`
}

// New creates a fresh session shell for a login handshake. The device ID is
// generated once here and only regenerated on the next fresh login.
func New(username, userAgent string) *Session {
	return &Session{
		Username:  username,
		DeviceID:  uuid.NewString(),
		UserAgent: userAgent,
		Cookies:   make(map[string]string),
		CreatedAt: time.Now(),
		Valid:     true,
	}
}

// IsValid reports whether the session may be used for requests
func (s *Session) IsValid() bool {
	return s != nil && s.Valid
}

// MarkInvalid flips the in-memory validity flag. Persisting the flip is the
// lifecycle controller's responsibility.
func (s *Session) MarkInvalid() {
	if s != nil {
		s.Valid = false
	}
}

// SessionID returns the sessionid cookie value
func (s *Session) SessionID() string {
	return s.Cookies[CookieSessionID]
}

// CSRFToken returns the csrftoken cookie value
func (s *Session) CSRFToken() string {
	return s.Cookies[CookieCSRFToken]
}

// wellFormed reports whether a loaded record carries enough credential
// material to be usable at all
func (s *Session) wellFormed() bool {
	return s != nil && s.Username != "" && s.Cookies != nil && s.Cookies[CookieSessionID] != ""
}
