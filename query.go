package caseflow

import "context"

// Query binds a Store entry to its fetch function: the handle a dashboard
// panel holds for a single-shot aggregate (summary KPIs, a breakdown, a
// trend series). Panels sharing a key share the entry; panels with different
// keys fail and refresh independently of each other.
type Query[V any] struct {
	store *Store[V]
	key   string
	fetch FetchFunc[V]
}

func NewQuery[V any](store *Store[V], key string, fetch FetchFunc[V]) *Query[V] {
	return &Query[V]{store: store, key: key, fetch: fetch}
}

func (q *Query[V]) Key() string { return q.key }

// Ensure triggers a fetch if the entry is absent or stale and returns the
// current snapshot.
func (q *Query[V]) Ensure(ctx context.Context) Result[V] {
	return q.store.Ensure(ctx, q.key, q.fetch)
}

// Refetch forces a new fetch regardless of freshness.
func (q *Query[V]) Refetch(ctx context.Context) Result[V] {
	return q.store.Refetch(ctx, q.key, q.fetch)
}

// Get waits for the settled value (blocking variant).
func (q *Query[V]) Get(ctx context.Context) (V, error) {
	return q.store.Fetch(ctx, q.key, q.fetch)
}

// Result returns the current snapshot without triggering a fetch.
func (q *Query[V]) Result() Result[V] {
	r, _ := q.store.Get(q.key)
	return r
}

// Subscribe registers fn for changes to this query's entry.
func (q *Query[V]) Subscribe(fn func(Result[V])) (unsubscribe func()) {
	return q.store.Subscribe(q.key, fn)
}
