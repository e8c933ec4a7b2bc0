package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name:     "short forms",
			args:     []string{"-d", "/tmp/kolp", "-l", "debug", "-p", "5000", "-b", "127.0.0.1:6000"},
			expected: &Config{DataDir: "/tmp/kolp", LogLevel: "debug", RedirectPort: 5000, BridgeAddr: "127.0.0.1:6000"},
		},
		{
			name:     "long forms mixed with cobra args",
			args:     []string{"push", "notes.json", "--data-dir=/srv/kolp", "--redirect-port", "7000"},
			expected: &Config{DataDir: "/srv/kolp", RedirectPort: 7000},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"--force", "-x", "1"},
			expected: &Config{},
		},
		{
			name:    "bad port",
			args:    []string{"-p", "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
