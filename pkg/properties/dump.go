package properties

import (
	"strings"

	"github.com/animalet/cascade-go/internal/snapshot"
	"github.com/pkg/errors"
)

// AllProperties resolves every raw key as seen from env, without changing the default
// environment. Keys with an uppercase environment prefix are reported without it when the
// stripped key resolves in env. Protected values are returned in clear; use Display before
// showing them.
func (m *Manager) AllProperties(env string) (map[string]string, error) {
	if !ValidEnvironment(env) {
		return nil, errors.Errorf("invalid environment %q", env)
	}
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()

	savedEnv, savedChain, savedTiers := m.env, m.chain, m.tiers
	m.env = strings.ToUpper(env)
	m.invalidateChainLocked()
	defer func() {
		m.env, m.chain, m.tiers = savedEnv, savedChain, savedTiers
	}()

	out := make(map[string]string, len(m.raw))
	for rawKey := range m.raw {
		key := m.stripEnvironmentPrefixLocked(rawKey)
		value, found, err := m.lookupLocked("", key, untrackedResolution())
		if err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Unable to resolve property for dump")
			continue
		}
		if found {
			out[key] = value
		}
	}
	return out, nil
}

// Raw returns a copy of the unresolved property map.
func (m *Manager) Raw() map[string]string {
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot.StringMap(m.raw)
}

func (m *Manager) stripEnvironmentPrefixLocked(key string) string {
	prefix, rest, ok := strings.Cut(key, ".")
	if !ok || strings.ToUpper(prefix) != prefix {
		return key
	}
	if _, found, _ := m.lookupLocked("", rest, untrackedResolution()); !found {
		return key
	}
	return rest
}

// Masked returns a copy of values with protected values replaced by the mask.
func Masked(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Display(k, v)
	}
	return out
}

// untrackedResolution resolves without touching the lookup counters.
func untrackedResolution() *resolution {
	return &resolution{untracked: true}
}
