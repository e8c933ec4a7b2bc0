package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/container"
	"github.com/dmitrijs2005/kolp/internal/oauth"
	"github.com/dmitrijs2005/kolp/internal/remote"
)

var (
	ErrNoBackup           = errors.New("no backup found")
	ErrMissingCredentials = errors.New("client id and secret are required")
)

// Message turns err into the short text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, oauth.ErrStateMismatch):
		return "Invalid state"
	case errors.Is(err, oauth.ErrAuthTimeout):
		return "Authorization timed out"
	case errors.Is(err, oauth.ErrAuthorizationDenied):
		return "Authorization denied"
	case errors.Is(err, oauth.ErrFlowInProgress):
		return "Authorization already in progress"
	case errors.Is(err, oauth.ErrRefreshUnavailable):
		return "Token refresh failed"
	case errors.Is(err, oauth.ErrExchangeFailed):
		return err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return "Not connected"
	case errors.Is(err, ErrMissingCredentials):
		return "Client ID and secret are required"
	case errors.Is(err, ErrNoBackup):
		return "No backup found"
	case errors.Is(err, container.ErrChecksumMismatch):
		return "Checksum verification failed"
	case errors.Is(err, container.ErrBadMagic):
		return "Invalid file format"
	case container.IsFormatError(err):
		return "Invalid backup file: " + err.Error()
	case errors.Is(err, remote.ErrTransport):
		return remote.Message(err)
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out"
	}
	return err.Error()
}
