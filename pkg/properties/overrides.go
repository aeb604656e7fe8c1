package properties

import (
	"slices"
	"strings"

	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/pkg/errors"
)

// Housekeeping variables that never override anything.
var environDenylist = map[string]struct{}{
	"windir":             {},
	"SystemDrive":        {},
	"CommonProgramFiles": {},
	"ComSpec":            {},
	"SystemRoot":         {},
	"Path":               {},
	"ProgramFiles":       {},
}

// Built-in system properties that never override anything.
var systemPropertyDenylist = map[string]struct{}{
	"go.version":     {},
	"go.os":          {},
	"go.arch":        {},
	"os.name":        {},
	"os.arch":        {},
	"os.version":     {},
	"user.name":      {},
	"user.home":      {},
	"user.dir":       {},
	"file.separator": {},
	"path.separator": {},
	"line.separator": {},
	"file.encoding":  {},
	"tmp.dir":        {},
}

// ParseSystemProperties extracts -Dkey=value arguments. A bare -Dkey sets an empty value.
// The remaining arguments are returned in order.
func ParseSystemProperties(args []string) (props map[string]string, rest []string) {
	props = map[string]string{}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-D") || len(arg) == 2 {
			rest = append(rest, arg)
			continue
		}
		key, value, _ := strings.Cut(arg[2:], "=")
		if key == "" {
			rest = append(rest, arg)
			continue
		}
		props[key] = value
	}
	return props, rest
}

// IsProtected reports whether key, or its last namespace segment, starts with "_".
// Protected values are never logged or displayed.
func IsProtected(key string) bool {
	return strings.HasPrefix(key, "_") || strings.Contains(key, "._")
}

// Display returns value, or the mask when key is protected.
func Display(key, value string) string {
	if IsProtected(key) {
		return obfuscation.Masked
	}
	return value
}

func interestingEnvironKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.ToUpper(key) == key {
		return false
	}
	_, denied := environDenylist[key]
	return !denied
}

func interestingSystemProperty(key string) bool {
	if key == "" {
		return false
	}
	_, denied := systemPropertyDenylist[key]
	return !denied
}

// applyOverridesLocked layers the process environment, then the system properties, over
// the loaded files. Keys are visited in sorted order.
func (m *Manager) applyOverridesLocked() {
	sources := []struct {
		name       string
		values     map[string]string
		interested func(string) bool
	}{
		{"environment", m.environ, interestingEnvironKey},
		{"system properties", m.sysProps, interestingSystemProperty},
	}

	for _, source := range sources {
		keys := make([]string, 0, len(source.values))
		for key := range source.values {
			if source.interested(key) {
				keys = append(keys, key)
			}
		}
		slices.Sort(keys)

		for _, key := range keys {
			value := source.values[key]
			m.logger.Info().
				Str("source", source.name).
				Str("key", key).
				Str("value", Display(key, value)).
				Msg("Pulling override")
			m.setOverrideLocked(key, value)
		}
	}
}

// Override writes value for key under the current environment unless plain lookup already
// resolves key to value. It reports whether the raw map changed.
func (m *Manager) Override(key, value string) (bool, error) {
	if key == "" {
		return false, errors.New("override key must not be empty")
	}
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setOverrideLocked(key, value), nil
}

func (m *Manager) setOverrideLocked(key, value string) bool {
	fullKey := m.env + "." + key

	old, found, err := m.lookupLocked("", key, newResolution())
	if err != nil {
		m.logger.Error().Err(err).Str("key", fullKey).Msg("Unable to resolve current value, overriding anyway")
	}
	if found && err == nil && old == value {
		m.logger.Warn().
			Str("key", fullKey).
			Str("value", Display(key, value)).
			Msg("*** IGNORED  *** Ignoring redundant override")
		m.metrics.overrideIgnored()
		return false
	}

	m.logger.Warn().
		Str("key", fullKey).
		Str("new", Display(key, value)).
		Str("old", Display(key, old)).
		Msg("*** OVERRIDE *** Setting override")
	m.raw[fullKey] = value
	if key == environmentsKey {
		m.invalidateChainLocked()
	}
	m.metrics.overrideApplied()
	return true
}
