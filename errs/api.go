package errs

import (
	"errors"
	"net/http"
)

// Authentication & Authorization Errors
var (
	ErrInvalidCredentials = errors.New("email or password mismatch")
	ErrInvalidSession     = errors.New("invalid session token")
	ErrLoginRequired      = errors.New("login required")
)

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
	}
}

func NewInvalidSessionError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidSession,
		Cause:      cause,
		Field:      "session",
	}
}

// NewLoginRequiredError is returned by gates that send anonymous callers to
// the login page instead of refusing them outright.
func NewLoginRequiredError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusSeeOther,
		err:        ErrLoginRequired,
	}
}

func IsInvalidCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsInvalidSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSession)
}

func IsLoginRequiredError(err error) bool {
	return errors.Is(err, ErrLoginRequired)
}
