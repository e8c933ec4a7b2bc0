package oauth

import "errors"

var (
	ErrStateMismatch       = errors.New("invalid state")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrAuthTimeout         = errors.New("authorization timed out")
	ErrExchangeFailed      = errors.New("token exchange failed")
	ErrFlowInProgress      = errors.New("authorization already in progress")

	// ErrRefreshUnavailable means no new access token could be obtained.
	// Callers surface it as an authentication failure and do not retry.
	ErrRefreshUnavailable = errors.New("token refresh failed")
)
