package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the backup core.
//
// AuthURL, TokenURL and APIEndpoint are empty in production, meaning the
// Google defaults; they exist so a fake provider can be substituted.
type Config struct {
	DataDir string

	ClientID     string
	ClientSecret string
	RedirectPort int
	CallbackPath string
	AuthTimeout  time.Duration
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIEndpoint  string

	BridgeAddr          string
	BridgeTokenValidity time.Duration

	LogLevel         string
	JournalRetention int
}

const (
	ScopeDriveFile = "https://www.googleapis.com/auth/drive.file"
	ScopeEmail     = "https://www.googleapis.com/auth/userinfo.email"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.RedirectPort = 42813
	c.CallbackPath = "/oauth/callback"
	c.AuthTimeout = 5 * time.Minute
	c.Scopes = []string{ScopeDriveFile, ScopeEmail}
	c.BridgeAddr = "127.0.0.1:42814"
	c.BridgeTokenValidity = 24 * time.Hour
	c.LogLevel = "info"
	c.JournalRetention = 200
}

// RedirectURL is the callback address registered with the provider. It must
// match the loopback listener exactly.
func (c *Config) RedirectURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", c.RedirectPort, c.CallbackPath)
}

// AuthDir holds the credential and token files.
func (c *Config) AuthDir() string {
	return filepath.Join(c.DataDir, "auth")
}

// BackupDir holds the local copy of the last container.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

func (c *Config) BridgeTokenPath() string {
	return filepath.Join(c.DataDir, "bridge.token")
}

// LoadConfig builds a Config from defaults, the environment, an optional JSON
// file and finally the command-line flags found in args (usually
// os.Args[1:]). Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env", os.LookupEnv); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".kolp"
	}
	return filepath.Join(dir, "kolp")
}
