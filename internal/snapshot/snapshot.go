// Package snapshot hands out deep copies of the engine's internal state (the raw property
// map, the search chain) so callers can never mutate what the Manager resolves against.
package snapshot

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Copy returns a deep copy of src. A nil src yields (nil, nil).
func Copy[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}

	var dst T
	if err := deepcopy.Copy(&dst, src); err != nil {
		return nil, errors.Wrapf(err, "failed to deep copy type %T", src)
	}
	return &dst, nil
}

// MustCopy is Copy for values that are always copyable (maps and slices of strings).
// It panics on failure, which indicates a programming error.
func MustCopy[T any](src *T) *T {
	result, err := Copy(src)
	if err != nil {
		panic(errors.Wrap(err, "failed to create snapshot"))
	}
	return result
}

// Strings returns an independent copy of s. The result is non-nil for a non-nil input.
func Strings(s []string) []string {
	if s == nil {
		return nil
	}
	return *MustCopy(&s)
}

// StringMap returns an independent copy of m.
func StringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	return *MustCopy(&m)
}
