// Package errors provides common domain error types for the meetscribe CLI.
//
// This package defines sentinel errors for conditions shared across packages,
// such as "not found" or "reconnect attempts exhausted". Using typed errors
// enables consistent error handling with errors.Is() checks.
//
// Usage:
//
//	import mserrors "github.com/meetscribe/meetscribe-cli/pkg/errors"
//
//	// Return a domain error
//	return nil, mserrors.ErrNotFound
//
//	// Check for domain errors
//	if mserrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the request lacks a valid API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionClosed indicates the meeting's session ended for good and
	// will not accept further work.
	ErrSessionClosed = errors.New("session closed")

	// ErrReconnectExhausted indicates the streaming client gave up after
	// reaching the reconnect attempt ceiling. Recovery requires an explicit
	// reactivation.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsSessionClosed reports whether any error in err's chain is ErrSessionClosed.
func IsSessionClosed(err error) bool {
	return errors.Is(err, ErrSessionClosed)
}

// IsReconnectExhausted reports whether any error in err's chain is ErrReconnectExhausted.
func IsReconnectExhausted(err error) bool {
	return errors.Is(err, ErrReconnectExhausted)
}
