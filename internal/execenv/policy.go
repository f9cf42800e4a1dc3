// Package execenv builds the environment handed to child processes.
package execenv

import (
	"os"
	"path"
	"sort"
	"strings"
)

// Inherit controls which parent variables form the starting set.
type Inherit string

const (
	// InheritAll keeps the full parent environment (default).
	InheritAll Inherit = "all"
	// InheritNone starts from an empty environment.
	InheritNone Inherit = "none"
	// InheritCore keeps only the variables in coreVars.
	InheritCore Inherit = "core"
)

var coreVars = map[string]bool{
	"HOME":            true,
	"LOGNAME":         true,
	"PATH":            true,
	"SHELL":           true,
	"USER":            true,
	"TMPDIR":          true,
	"LANG":            true,
	"XDG_RUNTIME_DIR": true,
}

// Policy filters the environment of a spawned process. Steps run in order:
// inherit, exclude, set.
type Policy struct {
	Inherit Inherit `yaml:"inherit,omitempty"`

	// Exclude holds case-insensitive wildcard patterns (* and ?) of names
	// to drop.
	Exclude []string `yaml:"exclude,omitempty"`

	// Set is applied last and wins over everything else.
	Set map[string]string `yaml:"set,omitempty"`
}

// Build applies p to the current process environment and returns
// "KEY=VALUE" entries sorted by key, ready for exec.Cmd.Env.
func (p *Policy) Build() []string {
	return p.BuildFrom(os.Environ())
}

// BuildFrom applies p to base, a list of "KEY=VALUE" entries.
func (p *Policy) BuildFrom(base []string) []string {
	env := make(map[string]string, len(base))

	inherit := InheritAll
	if p != nil && p.Inherit != "" {
		inherit = p.Inherit
	}

	for _, entry := range base {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		switch inherit {
		case InheritAll:
			env[k] = v
		case InheritCore:
			if coreVars[k] {
				env[k] = v
			}
		}
	}

	if p != nil {
		for k := range env {
			if matchesAny(k, p.Exclude) {
				delete(env, k)
			}
		}
		for k, v := range p.Set {
			env[k] = v
		}
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func matchesAny(name string, patterns []string) bool {
	name = strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, _ := path.Match(strings.ToLower(pattern), name); ok {
			return true
		}
	}
	return false
}
