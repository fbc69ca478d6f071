package codec

import "encoding/json"

// JSON serializes snapshots with encoding/json. The zero value is ready to
// use. The default choice: snapshot payloads mirror the service's JSON
// responses, so round-tripping them through the same tags is loss-free.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
