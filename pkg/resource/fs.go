package resource

import (
	"io"
	"io/fs"

	"github.com/pkg/errors"
)

// FS opens resources from an fs.FS, typically an embed.FS holding default property files.
type FS struct {
	fsys fs.FS
}

// NewFS wraps fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Open implements Opener.
func (f *FS) Open(name string) ([]io.ReadCloser, error) {
	if !fs.ValidPath(name) {
		return nil, errors.Errorf("invalid resource name %q", name)
	}
	file, err := f.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%q", name)
		}
		return nil, errors.Wrapf(err, "failed to open resource %q", name)
	}
	return []io.ReadCloser{file}, nil
}
