package codec

import "google.golang.org/protobuf/proto"

// Protobuf serializes snapshots whose value type is a generated proto
// message (deployments that mirror the service's protobuf schema instead of
// JSON). Construct with NewProtobuf and a message constructor.
type Protobuf[T proto.Message] struct {
	new func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
