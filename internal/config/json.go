package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/kolp/internal/flagx"
	"github.com/dmitrijs2005/kolp/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields are treated as "not set" so a partial file only
// overrides what it names.
type JsonConfig struct {
	DataDir             string         `json:"data_dir"`
	ClientID            string         `json:"client_id"`
	ClientSecret        string         `json:"client_secret"`
	RedirectPort        int            `json:"redirect_port"`
	CallbackPath        string         `json:"callback_path"`
	AuthTimeout         timex.Duration `json:"auth_timeout"`
	Scopes              []string       `json:"scopes"`
	AuthURL             string         `json:"auth_url"`
	TokenURL            string         `json:"token_url"`
	APIEndpoint         string         `json:"api_endpoint"`
	BridgeAddr          string         `json:"bridge_addr"`
	BridgeTokenValidity timex.Duration `json:"bridge_token_validity"`
	LogLevel            string         `json:"log_level"`
	JournalRetention    *int           `json:"journal_retention"`
}

// parseJson overlays cfg with the JSON file named by -c / -config in args.
// Without such a flag nothing happens.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.ClientID, jc.ClientID)
	setString(&cfg.ClientSecret, jc.ClientSecret)
	setString(&cfg.CallbackPath, jc.CallbackPath)
	setString(&cfg.AuthURL, jc.AuthURL)
	setString(&cfg.TokenURL, jc.TokenURL)
	setString(&cfg.APIEndpoint, jc.APIEndpoint)
	setString(&cfg.BridgeAddr, jc.BridgeAddr)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.RedirectPort != 0 {
		cfg.RedirectPort = jc.RedirectPort
	}
	if jc.AuthTimeout.Duration != 0 {
		cfg.AuthTimeout = jc.AuthTimeout.Duration
	}
	if jc.BridgeTokenValidity.Duration != 0 {
		cfg.BridgeTokenValidity = jc.BridgeTokenValidity.Duration
	}
	if len(jc.Scopes) > 0 {
		cfg.Scopes = jc.Scopes
	}
	if jc.JournalRetention != nil {
		cfg.JournalRetention = *jc.JournalRetention
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
