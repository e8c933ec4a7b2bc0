package credentials

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string, *bytes.Buffer) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "auth")
	var buf bytes.Buffer
	return NewStore(dir, logging.NewTextLogger(&buf, "debug")), dir, &buf
}

func TestLoad_Missing_NotFound(t *testing.T) {
	s, _, logs := newTestStore(t)

	got, ok := s.Tokens.Load(context.Background())
	require.False(t, ok)
	require.Nil(t, got)
	require.NotContains(t, logs.String(), "level=WARN", "a missing file is not worth a warning")
}

func TestSaveAndLoad_Tokens(t *testing.T) {
	s, dir, _ := newTestStore(t)
	ctx := context.Background()

	want := &Tokens{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		ExpiresAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Email:        "me@example.com",
	}
	require.NoError(t, s.Tokens.Save(ctx, want))

	got, ok := s.Tokens.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, want.Email, got.Email)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(filepath.Join(dir, "tokens.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestSave_Overwrites(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Credentials.Save(ctx, &Credentials{ClientID: "old", ClientSecret: "x"}))
	require.NoError(t, s.Credentials.Save(ctx, &Credentials{ClientID: "new", ClientSecret: "y"}))

	got, ok := s.Credentials.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, &Credentials{ClientID: "new", ClientSecret: "y"}, got)
}

func TestLoad_Corrupted_DegradesToNotFound(t *testing.T) {
	s, dir, logs := newTestStore(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.json"), []byte("{not json"), 0o600))

	got, ok := s.Credentials.Load(context.Background())
	require.False(t, ok)
	require.Nil(t, got)
	require.Contains(t, logs.String(), "cannot parse record")
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	s, dir, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Credentials.Save(ctx, &Credentials{ClientID: "id", ClientSecret: "secret"}))
	require.NoError(t, s.Tokens.Save(ctx, &Tokens{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, s.Disconnect(ctx))
	require.NoError(t, s.Disconnect(ctx))

	_, err := os.Stat(filepath.Join(dir, "tokens.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, ok := s.Tokens.Load(ctx)
	require.False(t, ok)

	creds, ok := s.Credentials.Load(ctx)
	require.True(t, ok, "client registration survives a disconnect")
	require.Equal(t, "id", creds.ClientID)
}

func TestTokens_ExpiresWithin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero expiry", time.Time{}, true},
		{"already expired", now.Add(-time.Minute), true},
		{"inside margin", now.Add(30 * time.Second), true},
		{"exactly at margin", now.Add(60 * time.Second), true},
		{"beyond margin", now.Add(61 * time.Second), false},
		{"fresh", now.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Tokens{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, tok.ExpiresWithin(60*time.Second, now))
		})
	}
}
