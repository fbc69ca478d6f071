package caseflow

import "context"

// Page is one cursor-delimited slice of a large result.
type Page[T any] struct {
	Items []T
	// Total is the server-reported count of all matching records at the
	// time the page was produced.
	Total int
	// HasMore reports whether another page can be requested.
	HasMore bool
	// NextCursor is the opaque token for the next page; empty when HasMore
	// is false. The client never parses it.
	NextCursor string
	// LargeResult is a server-declared advisory that the result set is
	// large enough to warrant narrowing the filter.
	LargeResult bool
}

// PageSet is the accumulated value cached for an infinite query: the pages
// in fetch order plus metadata fixed by the first page.
type PageSet[T any] struct {
	Pages []Page[T]
	// Total is the first page's server-reported total; the flattened list
	// is capped to it.
	Total int
	// LargeResult is sticky: once page 1 raises the advisory it holds for
	// the whole entry lifetime, even if later pages do not repeat it.
	LargeResult bool
}

// PageFetchFunc fetches one page. cursor is empty for page 1.
type PageFetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// InfiniteResult is the contract exposed to consuming list views.
type InfiniteResult[T any] struct {
	Items              []T
	Total              int
	LargeResult        bool
	HasNextPage        bool
	IsFetchingNextPage bool
	IsLoading          bool
	IsError            bool
	Err                *Error
}

// Infinite accumulates cursor-sequential pages for one cache key.
//
// State machine: Empty -> Loading -> Loaded(hasMore) -> LoadingMore ->
// Loaded. FetchNextPage is a no-op while LoadingMore or once hasMore is
// false; the store's single in-flight guarantee means no duplicate page
// request can be issued no matter how many callers race.
//
// A stale entry is refreshed by re-fetching page 1 and restarting the
// accumulation from it; a failed refresh keeps the previously accumulated
// pages intact.
type Infinite[T any] struct {
	store *Store[PageSet[T]]
	key   string
	fetch PageFetchFunc[T]
}

func NewInfinite[T any](store *Store[PageSet[T]], key string, fetch PageFetchFunc[T]) *Infinite[T] {
	return &Infinite[T]{store: store, key: key, fetch: fetch}
}

func (q *Infinite[T]) Key() string { return q.key }

// Ensure triggers the first page fetch if the entry is absent or stale.
func (q *Infinite[T]) Ensure(ctx context.Context) InfiniteResult[T] {
	res := q.store.Ensure(ctx, q.key, func(ctx context.Context) (PageSet[T], error) {
		p, err := q.fetch(ctx, "")
		if err != nil {
			return PageSet[T]{}, err
		}
		return PageSet[T]{Pages: []Page[T]{p}, Total: p.Total, LargeResult: p.LargeResult}, nil
	})
	return flatten(res)
}

// FetchNextPage requests the page after the last accumulated one. No-op when
// nothing is accumulated yet, hasMore is false, or any fetch for the key is
// already in flight.
func (q *Infinite[T]) FetchNextPage(ctx context.Context) {
	res, ok := q.store.Get(q.key)
	if !ok || !res.HasValue || res.Fetching {
		return
	}
	last := res.Value.Pages[len(res.Value.Pages)-1]
	if !last.HasMore || last.NextCursor == "" {
		return
	}
	cursor := last.NextCursor

	q.store.EnsureMore(ctx, q.key,
		func(ctx context.Context) (PageSet[T], error) {
			p, err := q.fetch(ctx, cursor)
			if err != nil {
				return PageSet[T]{}, err
			}
			return PageSet[T]{Pages: []Page[T]{p}}, nil
		},
		func(prev, next PageSet[T]) PageSet[T] {
			merged := prev
			merged.Pages = make([]Page[T], 0, len(prev.Pages)+len(next.Pages))
			merged.Pages = append(merged.Pages, prev.Pages...)
			merged.Pages = append(merged.Pages, next.Pages...)
			return merged
		},
	)
}

// Result returns the current snapshot without triggering a fetch.
func (q *Infinite[T]) Result() InfiniteResult[T] {
	res, _ := q.store.Get(q.key)
	return flatten(res)
}

func (q *Infinite[T]) HasNextPage() bool        { return q.Result().HasNextPage }
func (q *Infinite[T]) IsFetchingNextPage() bool { return q.Result().IsFetchingNextPage }

// Subscribe registers fn for changes to the accumulated entry.
func (q *Infinite[T]) Subscribe(fn func(InfiniteResult[T])) (unsubscribe func()) {
	return q.store.Subscribe(q.key, func(r Result[PageSet[T]]) { fn(flatten(r)) })
}

// flatten concatenates the pages' items in fetch order, capped at the first
// page's server-reported total.
func flatten[T any](res Result[PageSet[T]]) InfiniteResult[T] {
	out := InfiniteResult[T]{
		IsLoading:          res.IsLoading(),
		IsError:            res.IsError(),
		Err:                res.Err,
		IsFetchingNextPage: res.FetchingMore,
	}
	if !res.HasValue {
		return out
	}
	ps := res.Value
	out.Total = ps.Total
	out.LargeResult = ps.LargeResult

	n := 0
	for _, p := range ps.Pages {
		n += len(p.Items)
	}
	if ps.Total > 0 && n > ps.Total {
		n = ps.Total
	}
	out.Items = make([]T, 0, n)
	for _, p := range ps.Pages {
		for _, it := range p.Items {
			if len(out.Items) == n {
				break
			}
			out.Items = append(out.Items, it)
		}
	}
	if len(ps.Pages) > 0 {
		last := ps.Pages[len(ps.Pages)-1]
		out.HasNextPage = last.HasMore
	}
	return out
}

// BoundPager adapts an Infinite query plus a context to the windower's
// prefetch contract (window.Pager is satisfied structurally).
type BoundPager[T any] struct {
	Ctx context.Context
	Q   *Infinite[T]
}

func (p BoundPager[T]) HasNextPage() bool        { return p.Q.HasNextPage() }
func (p BoundPager[T]) IsFetchingNextPage() bool { return p.Q.IsFetchingNextPage() }
func (p BoundPager[T]) FetchNextPage()           { p.Q.FetchNextPage(p.Ctx) }
