package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		names []string
		bools []string
		want  []string
	}{
		{
			name:  "short flag with separate value",
			args:  []string{"-c", "conf.json", "-a", "localhost"},
			names: []string{"c", "config"},
			want:  []string{"-c", "conf.json"},
		},
		{
			name:  "double dash with equals",
			args:  []string{"--config=alt.json", "push", "notes.json"},
			names: []string{"c", "config"},
			want:  []string{"--config=alt.json"},
		},
		{
			name:  "single and double dash spellings both match",
			args:  []string{"-data-dir", "/a", "--data-dir", "/b"},
			names: []string{"data-dir"},
			want:  []string{"-data-dir", "/a", "--data-dir", "/b"},
		},
		{
			name:  "unknown flags and positionals ignored",
			args:  []string{"-x", "1", "--y=2", "positional"},
			names: []string{"c"},
			want:  []string{},
		},
		{
			name:  "flag without value at end kept as-is",
			args:  []string{"-c"},
			names: []string{"c"},
			want:  []string{"-c"},
		},
		{
			name:  "next dash token is not a value",
			args:  []string{"-c", "--config=alt.json"},
			names: []string{"c", "config"},
			want:  []string{"-c", "--config=alt.json"},
		},
		{
			name:  "bool flag does not consume positional",
			args:  []string{"--verbose", "export", "-l", "debug"},
			names: []string{"l"},
			bools: []string{"verbose"},
			want:  []string{"--verbose", "-l", "debug"},
		},
		{
			name:  "stops at double dash terminator",
			args:  []string{"-l", "info", "--", "-l", "debug"},
			names: []string{"l"},
			want:  []string{"-l", "info"},
		},
		{
			name:  "lone dash is not a flag",
			args:  []string{"-", "-l", "warn"},
			names: []string{"l"},
			want:  []string{"-l", "warn"},
		},
		{
			name:  "empty args",
			args:  []string{},
			names: []string{"c"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.names, tt.bools...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "a.json"}, "a.json"},
		{"long", []string{"-config", "b.json"}, "b.json"},
		{"double dash equals", []string{"status", "--config=c.json"}, "c.json"},
		{"absent", []string{"status", "-l", "debug"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
