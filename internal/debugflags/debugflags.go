// Package debugflags parses glox's debug flag set: a comma-separated,
// case-insensitive list naming any subset of scanning, code, trace,
// stress_gc, log_gc, read from the GLOX_DEBUG environment variable and
// combined with an equivalent --debug CLI flag (a flag named in either is
// enabled).
package debugflags

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set is the parsed, normalized (lower-cased) collection of active debug
// flags.
type Set struct {
	Scanning bool
	Code     bool
	Trace    bool
	StressGC bool
	LogGC    bool
}

// names maps a flag's on-the-wire spelling to the Set field it sets.
var names = map[string]func(*Set){
	"scanning":  func(s *Set) { s.Scanning = true },
	"code":      func(s *Set) { s.Code = true },
	"trace":     func(s *Set) { s.Trace = true },
	"stress_gc": func(s *Set) { s.StressGC = true },
	"log_gc":    func(s *Set) { s.LogGC = true },
}

// envConfig is what caarlos0/env populates from the environment; the
// envSeparator tag tells it to split GLOX_DEBUG on commas into a string
// slice the same way a CLI --debug flag's value is split.
type envConfig struct {
	Debug []string `env:"GLOX_DEBUG" envSeparator:","`
}

// Load reads GLOX_DEBUG from the environment and merges in cliValue (the
// raw --debug flag argument, empty if not given). A flag present in either
// source is enabled; unknown flag names are rejected so a typo in --debug
// or GLOX_DEBUG is caught instead of silently ignored.
func Load(cliValue string) (Set, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return Set{}, fmt.Errorf("debugflags: %w", err)
	}

	var set Set
	for _, raw := range cfg.Debug {
		if err := apply(&set, raw); err != nil {
			return Set{}, err
		}
	}
	if cliValue != "" {
		for _, raw := range strings.Split(cliValue, ",") {
			if err := apply(&set, raw); err != nil {
				return Set{}, err
			}
		}
	}
	return set, nil
}

func apply(set *Set, raw string) error {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return nil
	}
	fn, ok := names[name]
	if !ok {
		return fmt.Errorf("debugflags: unknown flag %q (want one of %s)", name, strings.Join(sortedNames(), ", "))
	}
	fn(set)
	return nil
}

// sortedNames returns every recognized flag name in sorted order, used both
// for error messages and for String's deterministic rendering.
func sortedNames() []string {
	ks := maps.Keys(names)
	slices.Sort(ks)
	return ks
}

// String renders the active flags as a sorted, comma-separated list (empty
// string if none are set), so --debug diagnostics and golden tests are
// stable across runs.
func (s Set) String() string {
	var active []string
	for _, name := range sortedNames() {
		enabled := map[string]bool{
			"scanning":  s.Scanning,
			"code":      s.Code,
			"trace":     s.Trace,
			"stress_gc": s.StressGC,
			"log_gc":    s.LogGC,
		}[name]
		if enabled {
			active = append(active, name)
		}
	}
	return strings.Join(active, ",")
}
