package config

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML configuration. Unknown top-level keys are
// errors; keys under sassOptions are free-form.
func ParseYAML(path string, src []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Code: ErrCodeParse, Message: err.Error(), File: path, Err: err}
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}
