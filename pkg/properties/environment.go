package properties

import (
	"slices"
	"strings"

	"github.com/animalet/cascade-go/internal/snapshot"
	"github.com/animalet/cascade-go/pkg/resource"
	javaprops "github.com/magiconair/properties"
	"github.com/pkg/errors"
)

const (
	// EnvironmentProperty and EnvironmentVariable select the environment, checked first as
	// system properties and then in the process environment.
	EnvironmentProperty = "cascade.environment"
	EnvironmentVariable = "CASCADE_ENVIRONMENT"
	// ErrorEnvironment is used when no valid environment could be determined.
	ErrorEnvironment = "ERROR"

	environmentKey   = "environment"
	environmentsKey  = "ENVIRONMENTS"
	environmentToken = "{ENVIRONMENT}"
	chainSeparators  = " ,\t"
)

type tiers struct {
	dev, test, prod bool
}

// ValidEnvironment reports whether name is non-empty and made only of ASCII letters and
// digits.
func ValidEnvironment(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Environment returns the current default environment.
func (m *Manager) Environment() string {
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env
}

// SetEnvironment replaces the default environment and drops the cached search chain and
// tier flags. Surrounding blanks are trimmed; invalid names are replaced by ERROR.
func (m *Manager) SetEnvironment(env string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setEnvironmentLocked(env)
}

func (m *Manager) setEnvironmentLocked(env string) {
	env = strings.TrimSpace(env)
	next := ErrorEnvironment
	if ValidEnvironment(env) {
		next = strings.ToUpper(env)
	} else {
		m.logger.Error().Str("environment", env).Msg("Rejecting invalid environment")
	}

	if m.envKnown && m.env != next {
		m.logger.Warn().
			Str("old", m.env).
			Str("new", next).
			Msgf("The default environment has been overridden. Prefer -D%s=%s on the command line", EnvironmentProperty, next)
	}
	m.env = next
	m.envKnown = true
	m.invalidateChainLocked()
}

func (m *Manager) invalidateChainLocked() {
	m.chain = nil
	m.tiers = nil
}

// resolveEnvironmentLocked picks the environment from system properties, then the process
// environment, then the bootstrap file. Invalid candidates fall through to the next source.
func (m *Manager) resolveEnvironmentLocked() string {
	sources := []struct {
		name   string
		values map[string]string
	}{
		{"system property", m.sysProps},
		{"environment variable", m.environ},
	}
	for _, source := range sources {
		for _, key := range []string{EnvironmentProperty, EnvironmentVariable} {
			value, ok := source.values[key]
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			if !ValidEnvironment(value) {
				m.logger.Error().Str("source", source.name+" "+key).Str("environment", value).Msg("Ignoring invalid environment")
				continue
			}
			env := strings.ToUpper(value)
			m.logger.Warn().Str("environment", env).Str("source", source.name+" "+key).Msg("Default environment determined")
			return env
		}
	}

	value, err := m.readBootstrapLocked()
	if err != nil {
		m.logger.Error().Err(err).Str("file", m.opts.EnvironmentFile).Msg("Unable to load environment property file")
		return ErrorEnvironment
	}
	if !ValidEnvironment(value) {
		m.logger.Error().Str("file", m.opts.EnvironmentFile).Str("environment", value).Msg("Invalid environment in bootstrap file")
		return ErrorEnvironment
	}
	env := strings.ToUpper(value)
	m.logger.Warn().Str("environment", env).Str("source", m.opts.EnvironmentFile).Msg("Default environment determined")
	return env
}

func (m *Manager) readBootstrapLocked() (string, error) {
	contents, err := resource.ReadAll(m.opener, m.opts.EnvironmentFile)
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", resource.ErrNotFound
	}
	parsed, err := parse(contents[0])
	if err != nil {
		return "", err
	}
	value, ok := parsed.Get(environmentKey)
	if !ok {
		return "", errors.Errorf("key %q not found", environmentKey)
	}
	return strings.TrimSpace(value), nil
}

// SearchEnvironments returns a copy of the search chain, most specific first and always
// ending with the global environment "".
func (m *Manager) SearchEnvironments() []string {
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot.Strings(m.searchChainLocked())
}

// searchChainLocked returns the cached chain. Callers must not modify it.
func (m *Manager) searchChainLocked() []string {
	if m.chain != nil {
		return m.chain
	}

	chain := []string{m.env}
	if fallbacks, ok := m.raw[m.env+"."+environmentsKey]; ok {
		for _, token := range strings.FieldsFunc(fallbacks, func(r rune) bool {
			return strings.ContainsRune(chainSeparators, r)
		}) {
			if !slices.Contains(chain, token) {
				chain = append(chain, token)
			}
		}
	}
	if !slices.Contains(chain, "") {
		chain = append(chain, "")
	}
	m.chain = chain
	m.logger.Debug().Strs("chain", chain).Msg("Computed search environments")
	return chain
}

// IsDEV reports whether DEV is in the search chain and neither TEST nor PROD is.
func (m *Manager) IsDEV() bool {
	return m.tierFlags().dev
}

// IsTEST reports whether TEST is in the search chain and PROD is not.
func (m *Manager) IsTEST() bool {
	return m.tierFlags().test
}

// IsPROD reports whether PROD is in the search chain.
func (m *Manager) IsPROD() bool {
	return m.tierFlags().prod
}

func (m *Manager) tierFlags() tiers {
	m.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tiers != nil {
		return *m.tiers
	}

	t := &tiers{}
	for _, env := range m.searchChainLocked() {
		switch strings.ToUpper(env) {
		case "PROD":
			t.prod = true
		case "TEST":
			t.test = true
		case "DEV":
			t.dev = true
		}
	}
	if t.prod {
		t.test, t.dev = false, false
	} else if t.test {
		t.dev = false
	}
	m.tiers = t
	return *t
}

func parse(data []byte) (*javaprops.Properties, error) {
	loader := &javaprops.Loader{Encoding: javaprops.UTF8, DisableExpansion: true}
	parsed, err := loader.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse properties")
	}
	return parsed, nil
}
