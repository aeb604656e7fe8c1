package processor

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	envStart = "#env "
	envEnd   = "#vne"
	allEnvs  = "ALL"
)

// EnvironmentFiles runs Environments from src into dst, overwriting dst.
func EnvironmentFiles(src, dst, env string) (err error) {
	log.Info().Str("source", src).Str("target", dst).Str("environment", env).Msg("Processing #env statements")

	// #nosec G304 -- sources are the operator's own property files
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", src)
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 -- target chosen by the operator
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %q", dst)
		}
	}()

	w := bufio.NewWriter(out)
	if err = Environments(in, w, env); err != nil {
		return err
	}
	return errors.Wrapf(w.Flush(), "failed to write %q", dst)
}

// Environments copies to w only the lines of r that sit inside an #env block listing env
// (case-insensitive) or ALL. Blocks nest; everything inside a matching block is kept,
// including nested blocks for other environments. Lines outside any block are dropped.
func Environments(r io.Reader, w io.Writer, env string) error {
	var (
		envDepth     int
		includeDepth int
		lineNumber   int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, envStart):
			envDepth++
			if includeDepth > 0 || matchesEnvironment(line[len(envStart):], env) {
				includeDepth++
			}
		case strings.HasPrefix(line, envEnd):
			envDepth--
			if includeDepth > 0 {
				includeDepth--
			}
			if envDepth < 0 {
				log.Warn().Int("line", lineNumber).Msg("Found an unexpected #vne")
				envDepth = 0
			}
		case includeDepth > 0:
			if err := writeLine(w, line); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(scanner.Err(), "failed to read source")
}

func matchesEnvironment(list, env string) bool {
	for _, candidate := range strings.Split(list, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.EqualFold(candidate, allEnvs) || strings.EqualFold(candidate, env) {
			return true
		}
	}
	return false
}
