// Package common defines shared constants and sentinel errors used across
// the KOLP backup core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// No stored tokens.
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed bridge token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
