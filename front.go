package oasschema

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/oasschema/decoder"
	"github.com/oarkflow/oasschema/unmarshaler"
)

// ValidateJSON decodes a JSON instance and a JSON schema and validates one
// against the other.
func ValidateJSON(data, schema []byte, opts ...Option) error {
	var s map[string]any
	if err := unmarshaler.Instance()(schema, &s); err != nil {
		return errors.Wrap(err, "decoding schema")
	}
	var instance any
	if err := unmarshaler.Instance()(data, &instance); err != nil {
		return errors.Wrap(err, "decoding instance")
	}
	return Validate(instance, s, opts...)
}

// ValidateYAML is ValidateJSON for YAML documents.
func ValidateYAML(data, schema []byte, opts ...Option) error {
	var s map[string]any
	if err := yaml.Unmarshal(schema, &s); err != nil {
		return errors.Wrap(err, "decoding schema")
	}
	var instance any
	if err := yaml.Unmarshal(data, &instance); err != nil {
		return errors.Wrap(err, "decoding instance")
	}
	return Validate(instance, s, opts...)
}

// ValidateReader decodes one JSON value from r and validates it.
func ValidateReader(r io.Reader, schema map[string]any, opts ...Option) error {
	var instance any
	if err := decoder.NewDecoder(r).Decode(&instance); err != nil {
		return errors.Wrap(err, "decoding instance")
	}
	return Validate(instance, schema, opts...)
}
