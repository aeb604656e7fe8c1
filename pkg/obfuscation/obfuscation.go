// Package obfuscation provides the reversible, non-cryptographic codec used to keep literal
// values out of plaintext property files.
//
// An obfuscated value is stored in a property file wrapped in triple brackets:
//
//	db.password=[[[794F205926105D09203C4A604647365900407A]]]
//
// The encoding XORs the UTF-8 bytes of the plaintext against a fixed repeating key, hex-encodes
// the result and run-length compresses long runs of identical characters. It hides values from
// casual reading; it is not encryption.
package obfuscation

import (
	"strings"

	"github.com/pkg/errors"
)

// mangleKey is the repeating keystream. Changing it invalidates every value obfuscated so far.
const mangleKey = "0hMyG05hPL3@53D0n'TCr@cKTH15.!!!!111oneoneone"

// Prefix and Suffix delimit an obfuscated value inside a property file.
const (
	Prefix = "[[["
	Suffix = "]]]"
)

const hexDigits = "0123456789ABCDEF"

var (
	// ErrInvalidHex is returned when a character outside the hex alphabet reaches the decoder.
	ErrInvalidHex = errors.New("invalid hex character")
	// ErrTruncated is returned when the encoded text ends in the middle of a byte or escape.
	ErrTruncated = errors.New("truncated obfuscated value")
)

// Obfuscate returns the encoded form of plaintext, without the surrounding brackets.
func Obfuscate(plaintext string) string {
	mangled := mangle([]byte(plaintext))
	var hex strings.Builder
	hex.Grow(len(mangled) * 2)
	for _, b := range mangled {
		hex.WriteByte(hexDigits[b>>4])
		hex.WriteByte(hexDigits[b&0x0f])
	}
	return Compress(hex.String())
}

// Clarify reverses Obfuscate.
func Clarify(text string) (string, error) {
	hex, err := Decompress(text)
	if err != nil {
		return "", err
	}
	if len(hex)%2 != 0 {
		return "", errors.Wrapf(ErrTruncated, "odd number of hex digits in %q", text)
	}

	raw := make([]byte, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		high, err := nibble(hex[i])
		if err != nil {
			return "", err
		}
		low, err := nibble(hex[i+1])
		if err != nil {
			return "", err
		}
		raw[i/2] = high<<4 | low
	}
	return string(mangle(raw)), nil
}

// Wrap obfuscates plaintext and surrounds it with Prefix and Suffix.
func Wrap(plaintext string) string {
	return Prefix + Obfuscate(plaintext) + Suffix
}

// Unwrap reports whether value is a complete obfuscated value and, if so, returns the
// encoded text between the brackets.
func Unwrap(value string) (string, bool) {
	if len(value) < len(Prefix)+len(Suffix) {
		return "", false
	}
	if !strings.HasPrefix(value, Prefix) || !strings.HasSuffix(value, Suffix) {
		return "", false
	}
	return value[len(Prefix) : len(value)-len(Suffix)], true
}

// mangle XORs in against the keystream. Applying it twice yields the input.
func mangle(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ mangleKey[i%len(mangleKey)]
	}
	return out
}

func nibble(c byte) (byte, error) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', nil
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, nil
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, errors.Wrapf(ErrInvalidHex, "%q", c)
}
