package marshaler

import (
	"github.com/goccy/go-json"
)

type Marshaler func(any) ([]byte, error)

var (
	marshaler Marshaler
)

func init() {
	marshaler = json.Marshal
}

// SetMarshaler swaps the function used to render instances in error messages
// and reports. Passing nil restores the default.
func SetMarshaler(m Marshaler) {
	if m == nil {
		m = json.Marshal
	}
	marshaler = m
}

func Instance() Marshaler {
	return marshaler
}
