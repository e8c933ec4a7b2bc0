// Package credentials persists the OAuth client registration and the issued
// tokens as JSON files in the application data directory. No other package
// touches these files directly.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/kolp/internal/filex"
	"github.com/dmitrijs2005/kolp/internal/logging"
)

const (
	credentialsFile = "client.json"
	tokensFile      = "tokens.json"
)

// Credentials is the OAuth client registration supplied once by the user.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Tokens is the issued token set and the account it belongs to.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email,omitempty"`
}

// ExpiresWithin reports whether the access token is expired at now+margin.
// A zero expiry counts as expired.
func (t *Tokens) ExpiresWithin(margin time.Duration, now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !t.ExpiresAt.After(now.Add(margin))
}

// Record is one JSON file holding a single value of T.
type Record[T any] struct {
	path   string
	logger logging.Logger
}

func NewRecord[T any](path string, logger logging.Logger) *Record[T] {
	return &Record[T]{path: path, logger: logger}
}

func (r *Record[T]) Path() string {
	return r.path
}

// Load returns the stored value. Read and parse failures are logged and
// reported as not found; Load never fails otherwise.
func (r *Record[T]) Load(ctx context.Context) (*T, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn(ctx, "cannot read record", "path", r.path, "error", err)
		}
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn(ctx, "cannot parse record", "path", r.path, "error", err)
		return nil, false
	}
	return &v, true
}

// Save replaces the file content with v.
func (r *Record[T]) Save(ctx context.Context, v *T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	r.logger.Debug(ctx, "record saved", "path", r.path)
	return nil
}

// Delete removes the file. Deleting a missing record succeeds.
func (r *Record[T]) Delete(ctx context.Context) error {
	if err := filex.RemoveIfExists(r.path); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	r.logger.Debug(ctx, "record deleted", "path", r.path)
	return nil
}

// Store groups the two records kept under the auth directory.
type Store struct {
	Credentials *Record[Credentials]
	Tokens      *Record[Tokens]
}

func NewStore(dir string, logger logging.Logger) *Store {
	l := logger.With("module", "credentials")
	return &Store{
		Credentials: NewRecord[Credentials](filepath.Join(dir, credentialsFile), l),
		Tokens:      NewRecord[Tokens](filepath.Join(dir, tokensFile), l),
	}
}

// Disconnect forgets the issued tokens. The client registration is kept so
// the user can reconnect without typing it again.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.Tokens.Delete(ctx)
}
