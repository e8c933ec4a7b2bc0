// Package config loads runtime configuration for the KOLP backup core.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: KOLP_* variables, plus an optional .env file in the
//     working directory (process variables win over the file).
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything above.
//
// Supported flags
//
//	-d, -data-dir string        directory holding tokens, backups and the journal
//	-l, -log-level string       debug | info | warn | error
//	-p, -redirect-port int      loopback port of the OAuth callback listener
//	-b, -bridge-addr string     host:port of the local gRPC bridge
//
// # JSON schema
//
// Durations accept strings like "5m" or integer nanoseconds:
//
//	{
//	  "data_dir": "/home/me/.config/kolp",
//	  "client_id": "1234.apps.googleusercontent.com",
//	  "redirect_port": 42813,
//	  "auth_timeout": "5m",
//	  "bridge_addr": "127.0.0.1:42814",
//	  "log_level": "debug"
//	}
package config
