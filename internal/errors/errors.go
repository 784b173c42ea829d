package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPassword is returned by signup when the password is empty.
	ErrInvalidPassword = errors.New("password must not be empty")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrMessageNotFound is returned when a message is not found.
	ErrMessageNotFound = errors.New("message not found")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("user cannot follow themselves")
	// ErrInvalidMessage is returned when message text is empty or longer than 140 characters.
	ErrInvalidMessage = errors.New("message must be 1-140 characters")
	// ErrForbidden is returned when a user acts on a resource they do not own.
	ErrForbidden = errors.New("forbidden")
)

// IntegrityError reports a write rejected by a storage constraint
// (unique, not null, check or foreign key). It is only produced at commit time.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("integrity violation: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// NewIntegrityError wraps err as an integrity violation.
func NewIntegrityError(constraint string, err error) *IntegrityError {
	return &IntegrityError{Constraint: constraint, Err: err}
}

// IsIntegrity reports whether err is, or wraps, an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// Code maps domain errors to stable codes for logs and CLI output.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPassword):
		return "INVALID_PASSWORD"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrMessageNotFound):
		return "MESSAGE_NOT_FOUND"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "INVALID_REFRESH_TOKEN"
	case errors.Is(err, ErrSelfFollow):
		return "SELF_FOLLOW"
	case errors.Is(err, ErrInvalidMessage):
		return "INVALID_MESSAGE"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case IsIntegrity(err):
		return "INTEGRITY_VIOLATION"
	default:
		return "INTERNAL_ERROR"
	}
}
