package processor

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/animalet/cascade-go/pkg/properties"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	includeFalse = "#include false"
	includeStart = "#include"
	maxLineSize  = 1024 * 1024
)

// IncludeFiles flattens src and everything it includes into dst, overwriting dst.
func IncludeFiles(src, dst string, obfuscate bool) (err error) {
	log.Info().Str("source", src).Str("target", dst).Msg("Processing #include statements")

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
	if err = Includes(src, w, obfuscate); err != nil {
		return err
	}
	return errors.Wrapf(w.Flush(), "failed to write %q", dst)
}

// Includes writes src to w with every #include replaced by the included file, resolved
// relative to the including file. The output starts with "#include false" so the engine
// does not load the includes a second time. When obfuscate is set, every value without a
// {reference} is wrapped with the obfuscation codec.
func Includes(src string, w io.Writer, obfuscate bool) error {
	if _, err := io.WriteString(w, includeFalse+"\n"); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	return includeFile(src, w, obfuscate, 0)
}

func includeFile(src string, w io.Writer, obfuscate bool, depth int) error {
	if depth > properties.DefaultMaxIncludeDepth {
		log.Error().Str("file", src).Int("depth", depth).Msg("Too deep to continue including, ending this branch")
		return nil
	}

	// #nosec G304 -- sources are the operator's own property files
	in, err := os.Open(src)
	if err != nil {
		log.Warn().Err(err).Str("file", src).Msg("Unable to open file, skipping it")
		return nil
	}
	defer func() { _ = in.Close() }()

	if err = writeLine(w, "#### Beginning of file '"+src+"' ####"); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, includeStart) {
			target := strings.TrimSpace(strings.TrimPrefix(line, includeStart))
			if target != "" && target != "false" {
				if !filepath.IsAbs(target) {
					target = filepath.Join(filepath.Dir(src), target)
				}
				if err = includeFile(target, w, obfuscate, depth+1); err != nil {
					return err
				}
			}
			if err = writeLine(w, "#### Returning to file '"+src+"' ####"); err != nil {
				return err
			}
			continue
		}
		if err = writeLine(w, processLine(line, obfuscate)); err != nil {
			return err
		}
	}
	if err = scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read %q", src)
	}
	return writeLine(w, "#### End of file '"+src+"' ####")
}

// processLine obfuscates the value of a key=value line. Comments, directives, lines without
// '=' and values holding references or already obfuscated are copied unchanged.
func processLine(line string, obfuscate bool) string {
	if !obfuscate || strings.HasPrefix(line, "#") {
		return line
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok || strings.Contains(value, "{") {
		return line
	}
	if _, wrapped := obfuscation.Unwrap(value); wrapped {
		return line
	}
	return key + "=" + obfuscation.Wrap(value)
}

func writeLine(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return errors.Wrap(err, "failed to write line")
	}
	return nil
}
