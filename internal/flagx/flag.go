// Package flagx lets several components share one command line. Each
// component picks out only the flags it owns and parses them with its own
// flag.FlagSet, so flags registered elsewhere (cobra commands, go test) do
// not make the parse fail.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args that belongs to the named flags.
//
// Names are given without leading dashes and match both the single-dash and
// the double-dash spelling, so "config" keeps "-config", "--config" and
// "--config=x". A flag followed by a token that does not start with '-' takes
// that token as its value. Boolean flags listed in boolNames never consume
// the following token.
func FilterArgs(args []string, names []string, boolNames ...string) []string {
	allowed := make(map[string]bool, len(names)+len(boolNames))
	for _, n := range names {
		allowed[n] = false
	}
	for _, n := range boolNames {
		allowed[n] = true
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, hasValue, ok := flagName(arg)
		if !ok {
			continue
		}
		isBool, known := allowed[name]
		if !known {
			continue
		}

		filtered = append(filtered, arg)
		if hasValue || isBool {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// flagName extracts the bare name from "-n", "--n" or "--n=v".
func flagName(arg string) (name string, hasValue bool, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = strings.TrimLeft(arg, "-")
	if name == "" {
		return "", false, false
	}
	if before, _, found := strings.Cut(name, "="); found {
		return before, true, true
	}
	return name, false, true
}

// ConfigFileFlag returns the value of -c / -config found in args, or an
// empty string when neither is present.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
