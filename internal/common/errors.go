// Package common defines shared constants and sentinel errors used across
// artfeed components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Authentication errors.
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrInvalidTokenType          = errors.New("invalid token type")
	ErrInvalidSignInMethod       = errors.New("invalid sign-in method")
	ErrInvalidFederatedAssertion = errors.New("invalid federated assertion")

	// Token codec errors.
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("bad token signature")
	ErrMalformedToken = errors.New("malformed token")
)
