package codec

import "fmt"

// Limit wraps another codec to enforce a maximum allowed payload size at
// Decode time; Encode is forwarded unchanged. If MaxDecode <= 0, limiting
// is disabled.
//
// Typical use: a shared provider (redis) that other processes also write to,
// where an oversized or foreign entry must not be decoded into memory.
type Limit[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxDecode is the maximum permitted payload length in bytes.
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
