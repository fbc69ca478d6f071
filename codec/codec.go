// Package codec serializes cached query snapshots for the optional
// second-level persistence layer. A Codec[V] pairs with a provider.Provider
// in caseflow.Options so snapshots survive a process restart.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
