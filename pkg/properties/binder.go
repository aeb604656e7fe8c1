package properties

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Binder copies resolved values into typed variables, one explicit call per field:
//
//	var cfg struct {
//		Host    string
//		Port    int
//		Debug   bool
//		Secret  obfuscation.Value
//	}
//	err := m.Namespace("db").Binder().
//		String("host", &cfg.Host).
//		Int("port", &cfg.Port).
//		Bool("debug", &cfg.Debug).
//		Obfuscated("password", &cfg.Secret).
//		Err()
//
// Keys are read from the secure namespace "_<namespace>" first, then from the namespace
// itself. Missing keys leave the target untouched, so targets carry their own defaults.
// Conversion failures are collected and reported by Err.
type Binder struct {
	manager   *Manager
	namespace string
	errs      []error
}

// NewBinder creates a Binder over namespace.
func NewBinder(m *Manager, namespace string) *Binder {
	return &Binder{manager: m, namespace: namespace}
}

func (b *Binder) lookup(key string) (string, bool) {
	secure := "_" + b.namespace
	value, found, err := b.manager.Lookup(secure, key)
	if err != nil {
		b.fail(key, err)
		return "", false
	}
	if found {
		b.manager.logger.Debug().Str("namespace", secure).Str("key", key).Str("value", obfuscation.Masked).Msg("Bound secure value")
		return value, true
	}

	value, found, err = b.manager.Lookup(b.namespace, key)
	if err != nil {
		b.fail(key, err)
		return "", false
	}
	if found {
		b.manager.logger.Debug().Str("namespace", b.namespace).Str("key", key).Str("value", Display(key, value)).Msg("Bound value")
	}
	return value, found
}

func (b *Binder) fail(key string, err error) {
	b.errs = append(b.errs, errors.Wrapf(err, "field %q", namespaceKey(b.namespace, key)))
}

func (b *Binder) String(key string, target *string) *Binder {
	if value, ok := b.lookup(key); ok {
		*target = value
	}
	return b
}

func (b *Binder) Int(key string, target *int) *Binder {
	if value, ok := b.lookup(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			b.fail(key, err)
			return b
		}
		*target = n
	}
	return b
}

func (b *Binder) Int64(key string, target *int64) *Binder {
	if value, ok := b.lookup(key); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			b.fail(key, err)
			return b
		}
		*target = n
	}
	return b
}

func (b *Binder) Float(key string, target *float64) *Binder {
	if value, ok := b.lookup(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			b.fail(key, err)
			return b
		}
		*target = f
	}
	return b
}

// Bool is true for values starting with T, Y, 1 or ON, in any case. Anything else is false.
func (b *Binder) Bool(key string, target *bool) *Binder {
	if value, ok := b.lookup(key); ok {
		*target = IsTrue(value)
	}
	return b
}

func (b *Binder) Duration(key string, target *time.Duration) *Binder {
	if value, ok := b.lookup(key); ok {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			b.fail(key, err)
			return b
		}
		*target = d
	}
	return b
}

// Strings reads key.0, key.1, ... until the first missing index.
func (b *Binder) Strings(key string, target *[]string) *Binder {
	var values []string
	for i := 0; ; i++ {
		value, ok := b.lookup(key + "." + strconv.Itoa(i))
		if !ok {
			break
		}
		values = append(values, value)
	}
	if values != nil {
		*target = values
	}
	return b
}

// Obfuscated keeps the resolved value only in obfuscated form.
func (b *Binder) Obfuscated(key string, target *obfuscation.Value) *Binder {
	if value, ok := b.lookup(key); ok {
		*target = obfuscation.Hide(value)
	}
	return b
}

// Decode unmarshals the value as YAML (which includes JSON) into target.
func (b *Binder) Decode(key string, target any) *Binder {
	if value, ok := b.lookup(key); ok {
		if err := yaml.Unmarshal([]byte(value), target); err != nil {
			b.fail(key, err)
		}
	}
	return b
}

// Err returns every conversion error collected so far, or nil.
func (b *Binder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return errors.Wrapf(stderrors.Join(b.errs...), "failed to bind %d field(s) in namespace %q", len(b.errs), b.namespace)
}

// IsTrue applies the boolean convention used for property values.
func IsTrue(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	return strings.HasPrefix(v, "T") ||
		strings.HasPrefix(v, "Y") ||
		strings.HasPrefix(v, "1") ||
		strings.HasPrefix(v, "ON")
}
