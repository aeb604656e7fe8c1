package properties

import (
	"os"
	"strings"
	"sync"

	"github.com/animalet/cascade-go/pkg/resource"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const unknownHost = "UNKNOWN"

// Manager owns the raw property map and resolves lookups against it.
//
// Every exported method takes the mutex; helpers suffixed with Locked expect it to be held,
// which lets interpolation call back into lookups without re-entering the lock.
type Manager struct {
	opts     Options
	logger   zerolog.Logger
	opener   resource.Opener
	environ  map[string]string
	sysProps map[string]string
	hostname string
	metrics  *Metrics

	once sync.Once
	mu   sync.Mutex

	raw      map[string]string
	env      string
	envKnown bool
	chain    []string
	tiers    *tiers
}

// New creates a Manager. Nothing is read until the first access or an explicit Load.
func New(opts Options, options ...Option) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid property manager options")
	}

	m := &Manager{
		opts:     opts,
		logger:   log.Logger,
		sysProps: map[string]string{},
		raw:      map[string]string{},
	}
	for _, option := range options {
		option(m)
	}

	if m.opener == nil {
		m.opener = resource.NewDirs(opts.SearchPath...)
	}
	if m.environ == nil {
		m.environ = parseEnviron(os.Environ())
	}
	if m.hostname == "" {
		m.hostname = m.lookupHostname()
	}
	if opts.Environment != "" {
		m.env = strings.ToUpper(opts.Environment)
		m.envKnown = true
	}
	return m, nil
}

// Load reads the property files and applies overrides. It runs at most once; every accessor
// calls it implicitly.
func (m *Manager) Load() {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.logger.Info().Str("file", m.opts.BaseFile).Msg("Property manager beginning load")
		if !m.envKnown {
			m.env = m.resolveEnvironmentLocked()
			m.envKnown = true
		}
		m.loadPropertiesLocked(m.opts.BaseFile, 0)
		m.applyOverridesLocked()
		m.logger.Info().
			Str("file", m.opts.BaseFile).
			Str("environment", m.env).
			Int("properties", len(m.raw)).
			Msg("Property manager finished load")
	})
}

// Hostname returns the upper-cased first label of the host name, or UNKNOWN.
func (m *Manager) Hostname() string {
	return m.hostname
}

func (m *Manager) lookupHostname() string {
	name, err := os.Hostname()
	if err != nil {
		m.logger.Error().Err(err).Msg("Unable to determine host name")
		return unknownHost
	}
	host := normalizeHostname(name)
	m.logger.Info().Str("hostname", host).Msg("Determined host name")
	return host
}

func normalizeHostname(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return unknownHost
	}
	return strings.ToUpper(name)
}

func parseEnviron(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}
