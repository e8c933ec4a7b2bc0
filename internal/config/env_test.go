package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseEnv_ProcessEnvironment(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, "", mapLookup(map[string]string{
		"KOLP_DATA_DIR":      "/env/dir",
		"KOLP_CLIENT_ID":     "cid",
		"KOLP_CLIENT_SECRET": "csecret",
		"KOLP_REDIRECT_PORT": "6001",
		"KOLP_SCOPES":        "a, b c",
		"KOLP_LOG_LEVEL":     "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/env/dir", cfg.DataDir)
	assert.Equal(t, "cid", cfg.ClientID)
	assert.Equal(t, "csecret", cfg.ClientSecret)
	assert.Equal(t, 6001, cfg.RedirectPort)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Scopes)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:42814", cfg.BridgeAddr)
}

func TestParseEnv_DotenvFileLosesToProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KOLP_CLIENT_ID=from-file\nKOLP_CLIENT_SECRET=file-secret\n"), 0o600))

	cfg := &Config{}
	err := parseEnv(cfg, path, mapLookup(map[string]string{"KOLP_CLIENT_ID": "from-process"}))
	require.NoError(t, err)

	assert.Equal(t, "from-process", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.ClientSecret)
}

func TestParseEnv_MissingDotenvIsFine(t *testing.T) {
	cfg := &Config{}
	err := parseEnv(cfg, filepath.Join(t.TempDir(), "absent.env"), mapLookup(nil))
	require.NoError(t, err)
}

func TestParseEnv_BadPort(t *testing.T) {
	cfg := &Config{}
	err := parseEnv(cfg, "", mapLookup(map[string]string{"KOLP_REDIRECT_PORT": "x"}))
	require.Error(t, err)
}
