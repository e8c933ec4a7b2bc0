// Package services is the boundary the UI side talks to. Every sync and
// auth operation returns a result value carrying success and a short,
// human-readable error; nothing below this package leaks as a panic.
package services

import (
	"context"

	"github.com/dmitrijs2005/kolp/internal/models"
)

// Authorizer runs the interactive authorization.
type Authorizer interface {
	Start(ctx context.Context, clientID, clientSecret string) (string, error)
}

// TokenProvider returns an access token that is safe to use right now.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// RemoteStore is the provider-side object store.
type RemoteStore interface {
	Upload(ctx context.Context, token string, data []byte, name string) (string, error)
	FindLatest(ctx context.Context, token string) (string, bool, error)
	Download(ctx context.Context, token, id string) ([]byte, error)
	Delete(ctx context.Context, token, id string) error
}

// Journal records sync attempts.
type Journal interface {
	Record(ctx context.Context, e *models.HistoryEntry) error
	LatestSuccessful(ctx context.Context, ops ...string) (*models.HistoryEntry, error)
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}
