// Package resource locates property files by name. A name may resolve to several
// resources (one per search directory, plus embedded defaults); callers load all of them
// in order, letting later resources overwrite earlier keys.
package resource

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no resource exists for a name.
var ErrNotFound = errors.New("resource not found")

// Opener opens every resource available for a name. Implementations return ErrNotFound
// (possibly wrapped) when nothing matches. The caller closes the returned readers.
type Opener interface {
	Open(name string) ([]io.ReadCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(name string) ([]io.ReadCloser, error)

// Open calls f(name).
func (f OpenerFunc) Open(name string) ([]io.ReadCloser, error) {
	return f(name)
}

// Chain opens the name through every opener in order and concatenates the results.
// It returns ErrNotFound only when none of them has the resource.
type Chain []Opener

// Open implements Opener.
func (c Chain) Open(name string) ([]io.ReadCloser, error) {
	var found []io.ReadCloser
	for _, opener := range c {
		readers, err := opener.Open(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			CloseAll(found)
			return nil, err
		}
		found = append(found, readers...)
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return found, nil
}

// ReadAll opens name and reads every resource fully, closing them afterwards.
func ReadAll(opener Opener, name string) ([][]byte, error) {
	readers, err := opener.Open(name)
	if err != nil {
		return nil, err
	}
	defer CloseAll(readers)

	contents := make([][]byte, 0, len(readers))
	for _, r := range readers {
		data, err := io.ReadAll(r)
		if err != nil {
			return contents, errors.Wrapf(err, "failed to read resource %q", name)
		}
		contents = append(contents, data)
	}
	return contents, nil
}

// CloseAll closes every reader, ignoring errors.
func CloseAll(readers []io.ReadCloser) {
	for _, r := range readers {
		_ = r.Close()
	}
}
