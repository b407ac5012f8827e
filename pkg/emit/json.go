package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/extwrangler/pkg/errors"
)

// WriteJSON encodes m as indented JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(m *Model, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a model written by [WriteJSON].
//
// ReadJSON returns an INVALID_FORMAT error if the JSON is malformed, if no
// versions are present, or if an extension's index does not match its
// position. It does not close r.
func ReadJSON(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode model")
	}
	if len(m.Versions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "model has no versions")
	}
	for i, ext := range m.Extensions {
		if ext.Index != i {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "extension %s has index %d at position %d", ext.Name, ext.Index, i)
		}
	}
	return &m, nil
}

// WriteYAML encodes m as YAML and writes it to w.
func WriteYAML(m *Model, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
