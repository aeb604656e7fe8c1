package processor

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// Formats lists the supported export encodings.
var Formats = []Format{YAML, TOML, JSON}

// ParseFormat accepts a format name in any case; "yml" is an alias for yaml.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	case "json":
		return JSON, nil
	}
	return "", errors.Errorf("unsupported export format %q", name)
}

// Export writes values as a flat document with keys in sorted order.
func Export(w io.Writer, values map[string]string, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case YAML:
		data, err = yaml.Marshal(values)
	case TOML:
		data, err = toml.Marshal(values)
	case JSON:
		data, err = json.MarshalIndent(values, "", "  ")
		data = append(data, '\n')
	default:
		return errors.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", format)
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "failed to write export")
}
