package resource

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Dirs opens resources from a list of directories, searched in order. Every directory that
// contains the name contributes one reader. Absolute names bypass the search path.
type Dirs struct {
	dirs []string
}

// NewDirs creates a directory search path. An empty list searches the working directory.
func NewDirs(dirs ...string) *Dirs {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return &Dirs{dirs: dirs}
}

// Open implements Opener.
func (d *Dirs) Open(name string) ([]io.ReadCloser, error) {
	if name == "" {
		return nil, errors.New("no resource name specified")
	}

	if filepath.IsAbs(name) {
		// #nosec G304 -- absolute names are explicit caller choices
		f, err := os.Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errors.Wrapf(ErrNotFound, "%q", name)
			}
			return nil, errors.Wrapf(err, "failed to open resource %q", name)
		}
		return []io.ReadCloser{f}, nil
	}

	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, errors.Errorf("invalid resource name %q: path traversal detected", name)
	}

	var readers []io.ReadCloser
	for _, dir := range d.dirs {
		path := filepath.Join(dir, clean)
		// #nosec G304 -- path is confined to the configured search directories
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			CloseAll(readers)
			return nil, errors.Wrapf(err, "failed to open resource %q", path)
		}
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			_ = f.Close()
			continue
		}
		log.Debug().Str("file", path).Msg("Resolved resource")
		readers = append(readers, f)
	}

	if len(readers) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q in %v", name, d.dirs)
	}
	return readers, nil
}
