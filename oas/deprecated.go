package oas

import (
	"github.com/oarkflow/oasschema/jsonschema"
	"github.com/oarkflow/oasschema/logger"
)

type legacyOptions struct {
	read, write bool
	opts        []jsonschema.Option
}

// LegacyOption configures NewOAS30Validator.
type LegacyOption func(*legacyOptions)

// WithRead marks the validator as validating responses.
//
// Deprecated: use OAS30Read.
func WithRead() LegacyOption {
	return func(o *legacyOptions) { o.read = true }
}

// WithWrite marks the validator as validating requests.
//
// Deprecated: use OAS30Write.
func WithWrite() LegacyOption {
	return func(o *legacyOptions) { o.write = true }
}

// WithOptions passes validator options through.
func WithOptions(opts ...jsonschema.Option) LegacyOption {
	return func(o *legacyOptions) { o.opts = append(o.opts, opts...) }
}

// NewOAS30Validator builds an OAS 3.0 validator from the legacy read and
// write flags.
//
// Deprecated: pick OAS30Read or OAS30Write directly.
func NewOAS30Validator(schema any, opts ...LegacyOption) *jsonschema.Validator {
	var o legacyOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.read || o.write {
		logger.Instance().Warn("read/write flags are deprecated, use OAS30Read or OAS30Write",
			"read", o.read, "write", o.write)
	}
	switch {
	case o.read && o.write:
		return oas30Context.New(schema, append(o.opts, jsonschema.WithReadWrite(true, true))...)
	case o.read:
		return OAS30Read.New(schema, append(o.opts, jsonschema.WithReadWrite(true, false))...)
	case o.write:
		return OAS30Write.New(schema, append(o.opts, jsonschema.WithReadWrite(false, true))...)
	}
	return OAS30.New(schema, o.opts...)
}
