// Package expansion implements a single substitution pass over {token} placeholders in
// property values. Callers that need a fixpoint run it repeatedly until the output stops
// changing.
package expansion

import (
	"strings"

	"github.com/pkg/errors"
)

// Mapping resolves a token. Returning found=false leaves the placeholder in the output,
// braces included, so unresolved references stay visible.
type Mapping func(token string) (value string, found bool, err error)

// Expand scans s left to right and replaces every well-formed {token} span using mapping.
//
// A '{' inside an open span restarts the span and echoes the abandoned text, so "{a{b}"
// tries only "b". An unterminated span at the end of the string is echoed verbatim.
// Empty spans ("{}") are never looked up.
func Expand(s string, mapping Mapping) (string, error) {
	if strings.IndexByte(s, '{') < 0 {
		return s, nil
	}

	var out strings.Builder
	out.Grow(len(s))

	inToken := false
	tokenStart := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case !inToken && c != '{':
			out.WriteByte(c)
		case !inToken:
			inToken = true
			tokenStart = i + 1
		case c == '{':
			// Abandon the open span, keep its text.
			out.WriteString(s[tokenStart-1 : i])
			tokenStart = i + 1
		case c == '}':
			inToken = false
			token := s[tokenStart:i]
			if token == "" {
				out.WriteString("{}")
				continue
			}
			value, found, err := mapping(token)
			if err != nil {
				return "", errors.Wrapf(err, "failed to expand {%s}", token)
			}
			if found {
				out.WriteString(value)
			} else {
				out.WriteString(s[tokenStart-1 : i+1])
			}
		}
	}
	if inToken {
		out.WriteString(s[tokenStart-1:])
	}
	return out.String(), nil
}
