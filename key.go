package caseflow

import "github.com/unkn0wn-root/caseflow/internal/keyutil"

// DeriveKey maps canonical key material (plus any auxiliary parameters such
// as page size or top-N) to a stable cache key. It is a pure function:
// identical input produces an identical key, so unrelated call sites whose
// filters coincide address the same cache entry.
//
// parts must already be canonical: the cases package normalizes multi-value
// fields (sorted, deduplicated) and omits fields at their defaults, so two
// UI-equivalent filters assembled in different order derive the same key.
// extra parameters are keyed too: differently parameterized views of the
// same filter (top-10 vs top-20 geography) must not collide.
func DeriveKey(family string, parts []string, extra ...string) string {
	all := parts
	if len(extra) > 0 {
		all = make([]string, 0, len(parts)+len(extra))
		all = append(all, parts...)
		all = append(all, extra...)
	}
	return family + ":" + keyutil.Sum(all)
}
