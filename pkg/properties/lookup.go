package properties

import (
	"github.com/pkg/errors"
)

// BuildNumberKey holds the build number of the running artifact.
const BuildNumberKey = "build.number"

func namespaceKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "." + key
}

// lookupLocked returns the interpolated value of the first chain entry holding the key.
func (m *Manager) lookupLocked(namespace, key string, r *resolution) (string, bool, error) {
	nsKey := namespaceKey(namespace, key)
	if !m.enterLocked(r, nsKey) {
		return "", false, nil
	}
	defer r.pop()

	for _, env := range m.searchChainLocked() {
		fullKey := nsKey
		if env != "" {
			fullKey = env + "." + nsKey
		}
		raw, ok := m.raw[fullKey]
		if !ok {
			continue
		}
		m.logger.Debug().Str("key", fullKey).Str("value", Display(fullKey, raw)).Msg("Found value")
		if !r.untracked {
			m.metrics.lookupHit()
		}
		value, err := m.interpolateLocked(raw, r)
		if err != nil {
			return "", true, errors.Wrapf(err, "failed to resolve %q", fullKey)
		}
		return value, true, nil
	}
	if !r.untracked {
		m.metrics.lookupMissed()
	}
	return "", false, nil
}

// Lookup resolves key in namespace ("" for none). The error is set only when a value was
// found but could not be decoded.
func (m *Manager) Lookup(namespace, key string) (string, bool, error) {
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(namespace, key, newResolution())
}

// Get resolves key in namespace, returning def when no environment in the chain has it.
// A value that fails to decode is an authoring error and panics.
func (m *Manager) Get(namespace, key, def string) string {
	value, found, err := m.Lookup(namespace, key)
	if err != nil {
		panic(errors.Wrap(err, "failed to resolve property"))
	}
	if !found {
		return def
	}
	return value
}

// GetLocalized resolves a host-specific key: on host WINTERMUTE, ("", "a.b") reads
// "WINTERMUTE.a.b" and ("ns", "a") reads "WINTERMUTE.ns.a".
func (m *Manager) GetLocalized(namespace, key, def string) string {
	if namespace == "" {
		return m.Get("", m.hostname+"."+key, def)
	}
	return m.Get(m.hostname+"."+namespace, key, def)
}

// BuildNumber returns the value of build.number, or "" when unset.
func (m *Manager) BuildNumber() string {
	return m.Get("", BuildNumberKey, "")
}
