package oasschema

import (
	"github.com/oarkflow/oasschema/decoder"
	"github.com/oarkflow/oasschema/encoder"
	"github.com/oarkflow/oasschema/marshaler"
	"github.com/oarkflow/oasschema/unmarshaler"
)

// SetMarshaler swaps the JSON marshaler used to render values in messages.
func SetMarshaler(m marshaler.Marshaler) {
	marshaler.SetMarshaler(m)
}

// SetUnmarshaler swaps the JSON unmarshaler used by ValidateJSON.
func SetUnmarshaler(u unmarshaler.Unmarshaler) {
	unmarshaler.SetUnmarshaler(u)
}

// SetEncoder swaps the encoder WriteReport writes with.
func SetEncoder(factory encoder.Factory) {
	encoder.SetEncoder(factory)
}

// SetDecoder swaps the decoder ValidateReader reads with.
func SetDecoder(factory decoder.Factory) {
	decoder.SetDecoder(factory)
}
