// Package common defines shared constants and sentinel errors used across
// the client and server layers of userdir. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Directory-level errors.
	ErrorValidation   = errors.New("validation error")
	ErrorAccessDenied = errors.New("access denied: insufficient role")
	ErrorInternal     = errors.New("internal error")

	// Transport-level errors (caller could not be resolved to a principal).
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)
