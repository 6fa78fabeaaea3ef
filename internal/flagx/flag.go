// Package flagx lets several independent flag sets share one command line.
//
// Each consumer filters the raw arguments down to the flags it owns and parses
// only those, so unknown flags belonging to other consumers never cause
// "flag provided but not defined" errors.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args that belong to the named flags,
// together with their values. Names are given without dashes; both the
// "-name" and "--name" spellings are recognised.
//
// Supported forms:
//
//	-c conf.yaml      flag and value as separate arguments
//	--config=conf.yaml flag and value joined by '='
//	-legacy-reset     boolean flag without a value
//
// A separate value is taken only when the next argument does not itself
// start with '-'.
func FilterArgs(args []string, names []string) []string {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[strings.TrimLeft(n, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		name, hasValue, ok := flagName(args[i])
		if !ok {
			continue
		}
		if _, keep := allowed[name]; !keep {
			continue
		}

		filtered = append(filtered, args[i])
		if hasValue {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// flagName extracts the bare name of a flag argument and reports whether the
// value is embedded with '='.
func flagName(arg string) (name string, hasValue bool, ok bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
		return "", false, false
	}
	name = strings.TrimLeft(arg, "-")
	if before, _, found := strings.Cut(name, "="); found {
		return before, true, true
	}
	return name, false, true
}

// ConfigFileFlag extracts the config file path given via -c or -config.
// An empty string means no file was requested.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file (json or yaml)")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}
