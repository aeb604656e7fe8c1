package properties

import (
	"strings"

	"github.com/animalet/cascade-go/internal/expansion"
	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/pkg/errors"
)

// resolution tracks one top-level lookup: the keys currently being resolved, innermost
// last. A key met again on its own stack is a reference cycle and is left unresolved.
type resolution struct {
	stack     []string
	untracked bool
	reported  bool
}

func newResolution() *resolution {
	return &resolution{}
}

func (r *resolution) active(key string) bool {
	for _, k := range r.stack {
		if k == key {
			return true
		}
	}
	return false
}

func (r *resolution) push(key string) {
	r.stack = append(r.stack, key)
}

func (r *resolution) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

// enterLocked pushes key unless doing so would close a cycle or nest deeper than
// MaxResolutionDepth.
func (m *Manager) enterLocked(r *resolution, key string) bool {
	switch {
	case r.active(key):
		m.resolutionStopped(r, key, "Reference cycle detected, leaving the token unresolved")
		return false
	case len(r.stack) >= m.opts.MaxResolutionDepth:
		m.resolutionStopped(r, key, "References nested too deep, leaving the token unresolved")
		return false
	}
	r.push(key)
	return true
}

// interpolateLocked rewrites value until it stops changing: {ENVIRONMENT} becomes the
// current environment and every {token} found through lookup is substituted. A fixpoint of
// the form [[[...]]] is then clarified.
func (m *Manager) interpolateLocked(value string, r *resolution) (string, error) {
	current := value
	for pass := 0; ; pass++ {
		if pass == m.opts.MaxInterpolationPasses {
			m.logger.Error().
				Int("passes", pass).
				Strs("resolving", r.stack).
				Msg("Value did not settle, leaving remaining tokens unresolved")
			break
		}

		next := strings.ReplaceAll(current, environmentToken, m.env)
		next, err := expansion.Expand(next, func(token string) (string, bool, error) {
			return m.lookupLocked("", token, r)
		})
		if err != nil {
			return "", err
		}
		if next == current {
			break
		}
		current = next
	}

	if inner, ok := obfuscation.Unwrap(current); ok {
		plain, err := obfuscation.Clarify(inner)
		if err != nil {
			return "", errors.Wrap(err, "failed to clarify obfuscated value")
		}
		return plain, nil
	}
	return current, nil
}

func (m *Manager) resolutionStopped(r *resolution, key, msg string) {
	if r.reported {
		return
	}
	r.reported = true
	m.logger.Error().
		Str("key", key).
		Strs("resolving", r.stack).
		Int("max_depth", m.opts.MaxResolutionDepth).
		Msg(msg)
}
