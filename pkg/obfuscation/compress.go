package obfuscation

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	escape = '^'
	// countAlphabet maps a run length to its symbol: 'a' is 0, 'z' is 25, '0' is 26, '9' is 35.
	// The last two symbols are reserved and never produced while maxRun stays at 35.
	countAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-_"
	maxRun        = 35
	minRun        = 4
)

// Compress replaces every run of more than three identical characters with the escape
// "^" + char + countChar. Runs longer than 35 are split. It is meant for hex strings,
// which never contain the escape character themselves.
//
//	Compress("0000000000") == "^0k"
func Compress(in string) string {
	var out strings.Builder
	out.Grow(len(in))
	for i := 0; i < len(in); {
		j := i
		for j < len(in) && in[j] == in[i] && j-i < maxRun {
			j++
		}
		run := j - i
		if run >= minRun {
			out.WriteByte(escape)
			out.WriteByte(in[i])
			out.WriteByte(countAlphabet[run])
		} else {
			out.WriteString(in[i:j])
		}
		i = j
	}
	return out.String()
}

// Decompress expands the escapes produced by Compress.
func Decompress(in string) (string, error) {
	var out strings.Builder
	out.Grow(len(in) * 2)
	for i := 0; i < len(in); i++ {
		if in[i] != escape {
			out.WriteByte(in[i])
			continue
		}
		if i+2 >= len(in) {
			return "", errors.Wrapf(ErrTruncated, "escape at offset %d", i)
		}
		count := strings.IndexByte(countAlphabet, in[i+2])
		if count < 0 {
			return "", errors.Errorf("invalid run length symbol %q at offset %d", in[i+2], i+2)
		}
		out.WriteString(strings.Repeat(string(in[i+1]), count))
		i += 2
	}
	return out.String(), nil
}
