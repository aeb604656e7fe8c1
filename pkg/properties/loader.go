package properties

import (
	"strings"

	"github.com/animalet/cascade-go/pkg/resource"
	"github.com/pkg/errors"
)

// IncludeDirective starts a line naming another property file to load.
const IncludeDirective = "#include "

// loadPropertiesLocked merges every resource found for filename into the raw map, later
// resources overwriting earlier keys, then loads its includes one level deeper.
func (m *Manager) loadPropertiesLocked(filename string, depth int) {
	m.logger.Info().Str("file", filename).Int("depth", depth).Msg("Loading property file")

	contents, err := resource.ReadAll(m.opener, filename)
	switch {
	case errors.Is(err, resource.ErrNotFound):
		m.logger.Warn().Str("file", filename).Msg("Property file not found")
		return
	case err != nil:
		m.logger.Error().Err(err).Str("file", filename).Msg("Error occurred while loading property file")
		m.metrics.loadFailed()
	}

	for _, data := range contents {
		parsed, err := parse(data)
		if err != nil {
			m.logger.Error().Err(err).Str("file", filename).Msg("Error occurred while parsing property file")
			m.metrics.loadFailed()
			continue
		}
		for _, key := range parsed.Keys() {
			value, _ := parsed.Get(key)
			m.raw[key] = value
		}
		m.metrics.fileLoaded()
		m.logger.Info().Str("file", filename).Int("keys", parsed.Len()).Msg("Property file loaded successfully")
	}

	for _, include := range m.readIncludeFilesLocked(filename, depth, contents) {
		m.loadPropertiesLocked(include, depth+1)
	}
}

// readIncludeFilesLocked collects the interpolated targets of every #include line. An
// include of "false" cancels include processing for the whole file.
func (m *Manager) readIncludeFilesLocked(filename string, depth int, contents [][]byte) []string {
	if depth > m.opts.MaxIncludeDepth {
		m.logger.Error().
			Str("file", filename).
			Int("depth", depth).
			Msg("Too deep to continue including, ending this branch")
		return nil
	}

	var includes []string
	for _, data := range contents {
		for _, line := range splitLines(string(data)) {
			if !strings.HasPrefix(line, IncludeDirective) {
				continue
			}
			target, err := m.interpolateLocked(line[len(IncludeDirective):], newResolution())
			if err != nil {
				m.logger.Error().Err(err).Str("file", filename).Str("line", line).Msg("Unable to resolve include")
				continue
			}
			target = strings.TrimSpace(target)
			if target == "false" {
				m.logger.Info().Str("file", filename).Msg("Found '#include false', cancelling include processing for this file")
				return nil
			}
			m.logger.Info().Str("file", filename).Str("include", target).Msg("Adding include")
			includes = append(includes, target)
		}
	}
	return includes
}

// splitLines splits on both \r and \n and drops empty lines.
func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
}
