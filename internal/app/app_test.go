package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/dmitrijs2005/kolp/internal/oauth"
)

func TestNew_WiresEverything(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "kolp")

	a, err := New(context.Background(), cfg, logging.Nop(), oauth.BrowserFunc(func(context.Context, string) error { return nil }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = os.Stat(cfg.JournalPath())
	require.NoError(t, err)

	st := a.Auth.Status(context.Background())
	assert.False(t, st.Connected)

	res := a.Backup.SyncUpload(context.Background(), &models.Snapshot{})
	assert.False(t, res.Success)
	assert.Equal(t, "Not connected", res.Error)

	_, err = os.Stat(a.Backup.LocalCopyPath())
	require.NoError(t, err, "local copy is written before authentication is checked")

	entries, err := a.Backup.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusFailed, entries[0].Status)
}
