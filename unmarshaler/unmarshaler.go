package unmarshaler

import (
	"github.com/goccy/go-json"
)

type Unmarshaler func([]byte, any) error

var (
	unmarshaler Unmarshaler
)

func init() {
	unmarshaler = json.Unmarshal
}

// SetUnmarshaler swaps the function used to decode schemas, instances and the
// bundled metaschemas. Passing nil restores the default.
func SetUnmarshaler(m Unmarshaler) {
	if m == nil {
		m = json.Unmarshal
	}
	unmarshaler = m
}

func Instance() Unmarshaler {
	return unmarshaler
}
