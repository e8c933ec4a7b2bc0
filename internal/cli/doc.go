// Package cli implements the kolp command line: container export, import
// and inspection, account connection, remote sync and the local bridge.
//
// Commands share one configuration, loaded by package config from defaults,
// KOLP_* environment variables, an optional JSON file and the global flags.
package cli
