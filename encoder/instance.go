package encoder

import (
	"io"

	"github.com/goccy/go-json"
)

type IEncoder interface {
	Encode(any) error
	SetIndent(prefix, indent string)
}

type Factory func(io.Writer) IEncoder

var encoderFactory Factory

func init() {
	encoderFactory = defaultFactory
}

func defaultFactory(w io.Writer) IEncoder {
	return json.NewEncoder(w)
}

// SetEncoder allows you to set a custom encoder factory. Passing nil restores the default.
func SetEncoder(factory Factory) {
	if factory == nil {
		factory = defaultFactory
	}
	encoderFactory = factory
}

// NewEncoder creates a new encoder using the currently set encoder factory.
func NewEncoder(w io.Writer) IEncoder {
	return encoderFactory(w)
}

func Instance() Factory {
	return encoderFactory
}
