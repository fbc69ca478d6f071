// Package caseflow implements the client-side data-access layer for a case
// explorer browsing roughly 900k records. It turns a filter value into
// deduplicated, cursor-paginated fetches against an abstract service, caches
// the results with time-based freshness, and feeds a windowed list renderer.
//
// Components:
//   - Store[V]: filter-keyed cache with request coalescing, stale/GC
//     lifetimes, ordered subscriber notification, and retry via RetryPolicy.
//   - Query[V]: single-shot handle over one cache entry (aggregate panels).
//   - Infinite[T]: cursor-sequential page accumulator over a Store entry.
//   - Provider + Codec[V]: optional second-level byte store so query
//     snapshots survive a process restart (see the persist option).
//
// Keys:
//
//	<family>:<xxhash of canonical filter encoding + extra params>
//
// Typical use:
//
//	store, _ := caseflow.NewStore[cases.StatsSummary](caseflow.Options[cases.StatsSummary]{
//	    Family: "stats",
//	})
//	key := caseflow.DeriveKey("stats", filter.KeyParts())
//	res := store.Ensure(ctx, key, func(ctx context.Context) (cases.StatsSummary, error) {
//	    return svc.Summary(ctx, filter)
//	})
//
// Consuming views read Result/InfiniteResult snapshots and subscribe for
// change notification; all mutation goes through the store's fetch path.
package caseflow
