// Package keyutil computes stable cache-key hashes from canonical string
// parts. Hashing keeps keys short and uniform no matter how many filter
// dimensions are active.
package keyutil

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// sep separates parts inside the digest so that ["ab","c"] and ["a","bc"]
// hash differently.
const sep = "\x1f"

// Sum returns a stable 64-bit hex digest over parts, in order.
func Sum(parts []string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString(sep)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
