package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeNoSession indicates no durable session record is present
	ErrorTypeNoSession ErrorType = "no_session"
	// ErrorTypeSessionInvalid indicates the session is marked unusable and a re-login is required
	ErrorTypeSessionInvalid ErrorType = "session_invalid"
	// ErrorTypeSessionExpired indicates the service rejected the session mid-flight
	ErrorTypeSessionExpired ErrorType = "session_expired"
	// ErrorTypeAuthFailed indicates credentials were rejected or a challenge was required
	ErrorTypeAuthFailed ErrorType = "auth_failed"
	// ErrorTypeRateLimit indicates throttling by the service
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeNetwork indicates a transient network failure
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeProtocol indicates a malformed or unexpected payload
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeServerError indicates a 5xx response from the service
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// AuthFailureReason distinguishes non-recoverable login failures
type AuthFailureReason string

const (
	ReasonBadCredentials    AuthFailureReason = "bad_credentials"
	ReasonChallengeRequired AuthFailureReason = "challenge_required"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Reason  AuthFailureReason
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error
func New(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// NewAuthFailed creates an auth failure error carrying the reason code
func NewAuthFailed(reason AuthFailureReason, message string, code int) *Error {
	return &Error{Type: ErrorTypeAuthFailed, Message: message, Code: code, Reason: reason}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeNoSession, ErrorTypeSessionInvalid, ErrorTypeSessionExpired,
		ErrorTypeAuthFailed, ErrorTypeProtocol:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 400, 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
