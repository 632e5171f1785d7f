// Package common defines shared constants and sentinel errors used across
// client and server layers of filekeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Lifecycle errors (asset state machine guards).
	ErrorInvalidTransition = errors.New("invalid state transition")

	// Byte move/copy failures against live, staging or bin storage.
	ErrorStorageIO = errors.New("storage i/o error")

	// Validation / input errors.
	ErrorValidation = errors.New("validation error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
