// Package common defines shared constants and sentinel errors used across
// BloomDrive server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Auth errors. Unauthenticated means no valid session was presented;
	// Forbidden means the session is valid but the operation is denied.
	// The two are never merged into one response.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Input and state errors.
	ErrorValidation = errors.New("validation error")
	ErrorConflict   = errors.New("conflict")

	// ErrorTransient marks a backend failure (5xx-class) that may succeed on
	// retry. It is distinct from ErrorUnauthenticated so that a flaky
	// identity backend does not force a logout.
	ErrorTransient = errors.New("transient backend error")

	ErrorInternal = errors.New("internal error")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
