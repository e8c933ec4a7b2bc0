package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// parseEnv overlays cfg with KOLP_* variables. Values from dotenvPath are
// used only where the process environment has no value. A missing dotenv
// file is not an error.
func parseEnv(cfg *Config, dotenvPath string, lookup lookupFunc) error {
	fileVars := map[string]string{}
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		if vars != nil {
			fileVars = vars
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := get("KOLP_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := get("KOLP_CLIENT_ID"); ok {
		cfg.ClientID = v
	}
	if v, ok := get("KOLP_CLIENT_SECRET"); ok {
		cfg.ClientSecret = v
	}
	if v, ok := get("KOLP_REDIRECT_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KOLP_REDIRECT_PORT: %w", err)
		}
		cfg.RedirectPort = port
	}
	if v, ok := get("KOLP_SCOPES"); ok && v != "" {
		cfg.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
	if v, ok := get("KOLP_BRIDGE_ADDR"); ok && v != "" {
		cfg.BridgeAddr = v
	}
	if v, ok := get("KOLP_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	return nil
}
