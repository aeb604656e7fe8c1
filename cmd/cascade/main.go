package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/alecthomas/kingpin/v2"
	"github.com/animalet/cascade-go/pkg/admin"
	"github.com/animalet/cascade-go/pkg/logger"
	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/animalet/cascade-go/pkg/processor"
	"github.com/animalet/cascade-go/pkg/properties"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information set during build
var (
	version = "dev"
)

// defaultAdminAddress keeps the unauthenticated admin API on loopback.
const defaultAdminAddress = "127.0.0.1:8089"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type cli struct {
	app *kingpin.Application

	optionsFile *string
	searchPath  *[]string
	baseFile    *string
	environment *string
	debug       *bool

	includes             *kingpin.CmdClause
	includesSource       *string
	includesTarget       *string
	includesObfuscate    *bool
	includesObfuscateSet bool
	environments         *kingpin.CmdClause
	environmentsSource   *string
	environmentsTarget   *string
	environmentsSelected *string
	obfuscate            *kingpin.CmdClause
	obfuscateValues      *[]string
	clarify              *kingpin.CmdClause
	clarifyValues        *[]string
	get                  *kingpin.CmdClause
	getKey               *string
	getNamespace         *string
	getDefault           *string
	getReveal            *bool
	dump                 *kingpin.CmdClause
	dumpFormat           *string
	dumpReveal           *bool
	serve                *kingpin.CmdClause
	serveAddress         *string
}

func newCLI(stderr io.Writer) *cli {
	c := &cli{app: kingpin.New("cascade", "Layered configuration resolution engine. Arguments of the form -Dkey=value are system properties.")}
	c.app.Version(version)
	c.app.UsageWriter(stderr)
	c.app.ErrorWriter(stderr)

	c.optionsFile = c.app.Flag("options", "YAML file with engine options").String()
	c.searchPath = c.app.Flag("path", "Directory searched for property files, repeatable").Short('p').Strings()
	c.baseFile = c.app.Flag("base", "Base property file").String()
	c.environment = c.app.Flag("environment", "Environment to resolve").Short('e').String()
	c.debug = c.app.Flag("debug", "Enable debug logging").Bool()

	c.includes = c.app.Command("includes", "Flatten #include directives into a single property file")
	c.includesSource = c.includes.Arg("source", "Source property file").Required().String()
	c.includesTarget = c.includes.Arg("target", "Target property file, overwritten").Required().String()
	c.includesObfuscate = c.includes.Flag("obfuscate", "Obfuscate every literal value. Defaults to on unless the environment is in the DEV tier").
		IsSetByUser(&c.includesObfuscateSet).Bool()

	c.environments = c.app.Command("environments", "Keep only the #env blocks matching an environment")
	c.environmentsSource = c.environments.Arg("source", "Source property file").Required().String()
	c.environmentsTarget = c.environments.Arg("target", "Target property file, overwritten").Required().String()
	c.environmentsSelected = c.environments.Arg("environment", "Environment to keep").Required().String()

	c.obfuscate = c.app.Command("obfuscate", "Print the obfuscated form of each value")
	c.obfuscateValues = c.obfuscate.Arg("values", "Plain values").Required().Strings()

	c.clarify = c.app.Command("clarify", "Print the plain form of each obfuscated value")
	c.clarifyValues = c.clarify.Arg("values", "Obfuscated values, with or without [[[ ]]]").Required().Strings()

	c.get = c.app.Command("get", "Resolve a single property")
	c.getKey = c.get.Arg("key", "Property key").Required().String()
	c.getNamespace = c.get.Flag("namespace", "Namespace of the key").Short('n').String()
	c.getDefault = c.get.Flag("default", "Value printed when the key is not found").String()
	c.getReveal = c.get.Flag("reveal", "Print protected values").Bool()

	c.dump = c.app.Command("dump", "Print every resolved property")
	c.dumpFormat = c.dump.Flag("format", "Output format: yaml, toml or json").Default(string(processor.YAML)).String()
	c.dumpReveal = c.dump.Flag("reveal", "Print protected values").Bool()

	c.serve = c.app.Command("serve", "Serve the admin HTTP API")
	c.serveAddress = c.serve.Flag("address", "Listen address").Default(defaultAdminAddress).String()

	return c
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	sysProps, rest := properties.ParseSystemProperties(args)
	c := newCLI(stderr)
	command, err := c.app.Parse(rest)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	settings, err := logger.SettingsFrom(sysProps, os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if *c.debug {
		settings.Level = zerolog.DebugLevel
	}
	closer, err := logger.Setup(settings, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Fatal: %v\n", err)
		return exitError
	}
	defer func() { _ = closer.Close() }()

	if err = c.execute(command, sysProps, stdout); err != nil {
		log.Error().Err(err).Str("command", command).Msg("Command failed")
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func (c *cli) execute(command string, sysProps map[string]string, stdout io.Writer) error {
	switch command {
	case c.includes.FullCommand():
		obfuscate, err := c.obfuscateIncludes(sysProps)
		if err != nil {
			return err
		}
		return processor.IncludeFiles(*c.includesSource, *c.includesTarget, obfuscate)
	case c.environments.FullCommand():
		return processor.EnvironmentFiles(*c.environmentsSource, *c.environmentsTarget, *c.environmentsSelected)
	case c.obfuscate.FullCommand():
		for _, value := range *c.obfuscateValues {
			if _, err := fmt.Fprintln(stdout, obfuscation.Wrap(value)); err != nil {
				return err
			}
		}
		return nil
	case c.clarify.FullCommand():
		return clarifyAll(*c.clarifyValues, stdout)
	case c.get.FullCommand():
		m, err := c.manager(sysProps, nil)
		if err != nil {
			return err
		}
		return c.runGet(m, stdout)
	case c.dump.FullCommand():
		m, err := c.manager(sysProps, nil)
		if err != nil {
			return err
		}
		return c.runDump(m, stdout)
	case c.serve.FullCommand():
		metrics, err := properties.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		m, err := c.manager(sysProps, metrics)
		if err != nil {
			return err
		}
		m.Load()
		server, err := admin.NewServer(admin.Config{Address: *c.serveAddress, Debug: *c.debug}, m, nil)
		if err != nil {
			return err
		}
		return server.StartAndWaitForSignal()
	}
	return errors.Errorf("unknown command %q", command)
}

func (c *cli) options() (properties.Options, error) {
	opts := properties.DefaultOptions()
	if *c.optionsFile != "" {
		read, err := properties.ReadOptions(*c.optionsFile)
		if err != nil {
			return opts, err
		}
		opts = *read
	}
	if len(*c.searchPath) > 0 {
		opts.SearchPath = *c.searchPath
	}
	if *c.baseFile != "" {
		opts.BaseFile = *c.baseFile
	}
	if *c.environment != "" {
		opts.Environment = *c.environment
	}
	return opts, nil
}

func (c *cli) manager(sysProps map[string]string, metrics *properties.Metrics) (*properties.Manager, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	return properties.New(opts,
		properties.WithSystemProperties(sysProps),
		properties.WithMetrics(metrics),
	)
}

// obfuscateIncludes honours an explicit --obfuscate or --no-obfuscate. Otherwise values stay
// in clear only for the DEV tier.
func (c *cli) obfuscateIncludes(sysProps map[string]string) (bool, error) {
	if c.includesObfuscateSet {
		return *c.includesObfuscate, nil
	}
	m, err := c.manager(sysProps, nil)
	if err != nil {
		return false, err
	}
	obfuscate := !m.IsDEV()
	log.Info().Str("environment", m.Environment()).Bool("obfuscate", obfuscate).Msg("Selected obfuscation for includes")
	return obfuscate, nil
}

func (c *cli) runGet(m *properties.Manager, stdout io.Writer) error {
	value, found, err := m.Lookup(*c.getNamespace, *c.getKey)
	if err != nil {
		return err
	}
	if !found {
		if *c.getDefault == "" {
			return errors.Errorf("property %q not found in environments %v", *c.getKey, m.SearchEnvironments())
		}
		value = *c.getDefault
	}
	if !*c.getReveal {
		key := *c.getKey
		if *c.getNamespace != "" {
			key = *c.getNamespace + "." + key
		}
		value = properties.Display(key, value)
	}
	_, err = fmt.Fprintln(stdout, value)
	return err
}

func (c *cli) runDump(m *properties.Manager, stdout io.Writer) error {
	format, err := processor.ParseFormat(*c.dumpFormat)
	if err != nil {
		return err
	}
	values, err := m.AllProperties(m.Environment())
	if err != nil {
		return err
	}
	if !*c.dumpReveal {
		values = properties.Masked(values)
	}
	log.Debug().Strs("keys", slices.Sorted(maps.Keys(values))).Msg("Dumping properties")
	return processor.Export(stdout, values, format)
}

func clarifyAll(values []string, stdout io.Writer) error {
	for _, value := range values {
		encoded := value
		if inner, ok := obfuscation.Unwrap(value); ok {
			encoded = inner
		}
		plain, err := obfuscation.Clarify(encoded)
		if err != nil {
			return errors.Wrapf(err, "failed to clarify %q", value)
		}
		if _, err = fmt.Fprintln(stdout, plain); err != nil {
			return err
		}
	}
	return nil
}
