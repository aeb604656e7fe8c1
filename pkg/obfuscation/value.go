package obfuscation

// Masked is printed in place of protected values.
const Masked = "***PROTECTED***"

// Value holds a string in its obfuscated form so the plaintext does not sit in memory
// or leak through fmt. Reveal it close to where it is used and do not cache the result
// in long-lived structs.
type Value struct {
	encoded string
}

// NewValue wraps an already obfuscated string (without brackets).
func NewValue(encoded string) Value {
	return Value{encoded: encoded}
}

// Hide obfuscates plaintext into a Value.
func Hide(plaintext string) Value {
	return Value{encoded: Obfuscate(plaintext)}
}

// Reveal returns the plaintext.
func (v Value) Reveal() (string, error) {
	return Clarify(v.encoded)
}

// Encoded returns the obfuscated form.
func (v Value) Encoded() string {
	return v.encoded
}

// IsZero reports whether the value was never set.
func (v Value) IsZero() bool {
	return v.encoded == ""
}

func (v Value) String() string {
	return Masked
}
