package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/kolp/internal/flagx"
)

// FlagNames lists every flag owned by this package, without dashes. The CLI
// registers the same names so it does not reject them.
var FlagNames = []string{"d", "data-dir", "l", "log-level", "p", "redirect-port", "b", "bridge-addr"}

// parseFlags populates cfg from the flags in args it owns. Everything else
// in args is ignored.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, FlagNames)

	fs := flag.NewFlagSet("kolp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.IntVar(&cfg.RedirectPort, "p", cfg.RedirectPort, "OAuth callback port")
	fs.IntVar(&cfg.RedirectPort, "redirect-port", cfg.RedirectPort, "OAuth callback port")
	fs.StringVar(&cfg.BridgeAddr, "b", cfg.BridgeAddr, "bridge address")
	fs.StringVar(&cfg.BridgeAddr, "bridge-addr", cfg.BridgeAddr, "bridge address")

	return fs.Parse(filtered)
}
