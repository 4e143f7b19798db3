package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionInvalid signals that the upstream rejected the current session.
// Recovery means re-authenticating, not retrying the request.
var ErrSessionInvalid = errors.New("session invalid")

// ErrNoSession is returned by a session store with no persisted record.
var ErrNoSession = errors.New("no session on disk")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// AuthError means the authenticator itself could not produce a session.
// Fatal for the run: there is nothing to retry against.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
