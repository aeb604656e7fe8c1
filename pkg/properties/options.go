package properties

import (
	"os"

	"github.com/animalet/cascade-go/pkg/resource"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseFile is the root of the include tree.
	DefaultBaseFile = "cascade.properties"
	// DefaultEnvironmentFile holds the bootstrap "environment" key.
	DefaultEnvironmentFile  = "cascade.environment.properties"
	DefaultMaxIncludeDepth        = 10
	DefaultMaxResolutionDepth     = 32
	DefaultMaxInterpolationPasses = 64
)

// Options configures a Manager. It can be read from a YAML file with ReadOptions.
// MaxResolutionDepth bounds how deep references may nest inside one lookup and
// MaxInterpolationPasses bounds the rewrite passes spent on a single value.
type Options struct {
	BaseFile               string   `yaml:"base_file"`
	EnvironmentFile        string   `yaml:"environment_file"`
	Environment            string   `yaml:"environment,omitempty"`
	SearchPath             []string `yaml:"search_path,omitempty"`
	MaxIncludeDepth        int      `yaml:"max_include_depth"`
	MaxResolutionDepth     int      `yaml:"max_resolution_depth"`
	MaxInterpolationPasses int      `yaml:"max_interpolation_passes"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BaseFile:               DefaultBaseFile,
		EnvironmentFile:        DefaultEnvironmentFile,
		MaxIncludeDepth:        DefaultMaxIncludeDepth,
		MaxResolutionDepth:     DefaultMaxResolutionDepth,
		MaxInterpolationPasses: DefaultMaxInterpolationPasses,
	}
}

// Validate checks that the options describe a usable Manager.
func (o Options) Validate() error {
	if o.BaseFile == "" {
		return errors.New("base_file must be set and non-empty")
	}
	if o.EnvironmentFile == "" {
		return errors.New("environment_file must be set and non-empty")
	}
	if o.MaxIncludeDepth < 0 {
		return errors.Errorf("max_include_depth must not be negative, got %d", o.MaxIncludeDepth)
	}
	if o.MaxResolutionDepth <= 0 {
		return errors.Errorf("max_resolution_depth must be positive, got %d", o.MaxResolutionDepth)
	}
	if o.MaxInterpolationPasses <= 0 {
		return errors.Errorf("max_interpolation_passes must be positive, got %d", o.MaxInterpolationPasses)
	}
	if o.Environment != "" && !ValidEnvironment(o.Environment) {
		return errors.Errorf("invalid environment %q", o.Environment)
	}
	return nil
}

// ReadOptions reads Options from a YAML file. Fields missing from the file keep their defaults.
func ReadOptions(file string) (*Options, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read options file %q", file)
	}

	out := DefaultOptions()
	if err = yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to parse options file %q", file)
	}
	if err = out.Validate(); err != nil {
		return nil, errors.Wrap(err, "options are invalid")
	}
	return &out, nil
}

// Option customizes the collaborators of a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithOpener sets where property files come from. The default searches Options.SearchPath.
func WithOpener(opener resource.Opener) Option {
	return func(m *Manager) {
		m.opener = opener
	}
}

// WithEnviron sets the process environment in os.Environ form. The default is os.Environ().
func WithEnviron(environ []string) Option {
	return func(m *Manager) {
		m.environ = parseEnviron(environ)
	}
}

// WithSystemProperties sets the system properties, usually built with ParseSystemProperties.
func WithSystemProperties(props map[string]string) Option {
	return func(m *Manager) {
		m.sysProps = make(map[string]string, len(props))
		for k, v := range props {
			m.sysProps[k] = v
		}
	}
}

// WithHostname fixes the host name used by localized lookups instead of asking the OS.
func WithHostname(hostname string) Option {
	return func(m *Manager) {
		m.hostname = normalizeHostname(hostname)
	}
}

// WithMetrics records lookups, overrides and file loads.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}
