package caseflow

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/caseflow/codec"
	"github.com/unkn0wn-root/caseflow/internal/snapwire"
	"github.com/unkn0wn-root/caseflow/provider"
)

// Store is a filter-keyed query cache. It guarantees:
//   - at most one in-flight fetch per key (request coalescing), covering
//     initial fetches, refreshes, and page appends alike;
//   - cache reads consistent with the latest completed write for the key;
//   - a resolved fetch whose entry was invalidated while in flight is
//     discarded, never applied (checked by epoch before applying);
//   - subscriber notification in registration order.
//
// All mutation goes through the Ensure/EnsureMore fetch path; there is no
// external write entry point, so two call sites cannot race to overwrite
// the same entry inconsistently.
type Store[V any] struct {
	family    string
	staleTime time.Duration
	gcTime    time.Duration
	retry     RetryPolicy
	log       Logger
	hooks     Hooks
	persist   provider.Provider
	codec     codec.Codec[V]

	// test seams
	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	entries map[string]*entry[V]
}

type fetchKind int

const (
	fetchReplace fetchKind = iota // initial fetch or refresh
	fetchAppend                   // next page
)

// mergeFunc folds a resolved fetch into the entry's current value.
type mergeFunc[V any] func(prev V, hasPrev bool, next V) V

func replaceMerge[V any](_ V, _ bool, next V) V { return next }

type subscriber[V any] struct {
	id int
	fn func(Result[V])
}

type entry[V any] struct {
	key      string
	value    V
	hasValue bool
	status   Status
	err      *Error
	// fetchedAt is the time of the last successful fetch; zeroed by
	// Invalidate so the next Ensure refetches.
	fetchedAt time.Time
	// epoch guards against stale overwrite: bumped by Invalidate/Remove,
	// checked before a resolved fetch is applied.
	epoch uint64
	// attempts made by the last fetch (1 = no retries).
	attempts int

	fetching bool
	kind     fetchKind
	done     chan struct{}
	cancel   context.CancelFunc

	subs      []subscriber[V]
	nextSubID int
	gcTimer   *time.Timer

	persistTried bool
}

// Get returns a snapshot of the entry for key, if present.
func (s *Store[V]) Get(key string) (Result[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Result[V]{}, false
	}
	return s.snapshotLocked(e), true
}

// Ensure returns the entry for key, fetching if it is absent, stale, or
// errored. When a fetch for key is already in flight, Ensure attaches to it
// instead of issuing a duplicate, no matter how many callers arrive
// concurrently. The returned snapshot reflects the entry at call time; use
// Subscribe or Fetch to observe completion.
func (s *Store[V]) Ensure(ctx context.Context, key string, fetch FetchFunc[V]) Result[V] {
	return s.ensure(ctx, key, fetch, false)
}

// Refetch behaves like Ensure but ignores freshness, always starting a new
// fetch unless one is already in flight.
func (s *Store[V]) Refetch(ctx context.Context, key string, fetch FetchFunc[V]) Result[V] {
	return s.ensure(ctx, key, fetch, true)
}

func (s *Store[V]) ensure(ctx context.Context, key string, fetch FetchFunc[V], force bool) Result[V] {
	s.mu.Lock()
	e := s.entryLocked(key)

	if e.fetching {
		snap := s.snapshotLocked(e)
		s.mu.Unlock()
		s.hooks.FetchCoalesced(key)
		return snap
	}

	s.maybeSeedLocked(ctx, e)

	// The seed path releases the lock around the provider round trip;
	// another caller may have started a fetch in that window. Attach to it
	// instead of starting a second one.
	if e.fetching {
		snap := s.snapshotLocked(e)
		s.mu.Unlock()
		s.hooks.FetchCoalesced(key)
		return snap
	}

	if !force && e.status == StatusSuccess && s.clock().Sub(e.fetchedAt) < s.staleTime {
		snap := s.snapshotLocked(e)
		s.mu.Unlock()
		return snap
	}

	snap := s.startFetchLocked(ctx, e, fetchReplace, fetch, replaceMerge[V])
	return snap
}

// EnsureMore appends to an existing entry through merge, used by Infinite to
// apply the next page. It is a no-op when the entry is missing, has no value
// yet, or already has a fetch in flight; the in-flight state is the single
// guard against duplicate next-page requests.
func (s *Store[V]) EnsureMore(ctx context.Context, key string, fetch FetchFunc[V], merge func(prev, next V) V) Result[V] {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || !e.hasValue {
		var r Result[V]
		if ok {
			r = s.snapshotLocked(e)
		}
		s.mu.Unlock()
		return r
	}
	if e.fetching {
		snap := s.snapshotLocked(e)
		s.mu.Unlock()
		s.hooks.FetchCoalesced(key)
		return snap
	}
	return s.startFetchLocked(ctx, e, fetchAppend, fetch, func(prev V, _ bool, next V) V {
		return merge(prev, next)
	})
}

// startFetchLocked marks e in flight and launches the fetch goroutine.
// Called with s.mu held; returns after releasing it and notifying
// subscribers of the transition.
func (s *Store[V]) startFetchLocked(ctx context.Context, e *entry[V], kind fetchKind, fetch FetchFunc[V], merge mergeFunc[V]) Result[V] {
	e.fetching = true
	e.kind = kind
	e.done = make(chan struct{})
	if !e.hasValue {
		e.status = StatusLoading
	}

	// The fetch outlives the triggering caller: coalesced subscribers still
	// want the result after the first caller goes away. Invalidate/Remove
	// cancel it explicitly.
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel

	key, epoch := e.key, e.epoch
	snap := s.snapshotLocked(e)
	subs := append([]subscriber[V](nil), e.subs...)
	s.mu.Unlock()

	s.hooks.FetchStarted(key, 0)
	s.log.Debug("fetch started", Fields{"family": s.family, "key": key, "kind": int(kind)})
	for _, sub := range subs {
		sub.fn(snap)
	}

	go s.fetchLoop(fctx, key, epoch, fetch, merge)
	return snap
}

// fetchLoop runs the fetch with bounded retries, then applies the outcome.
func (s *Store[V]) fetchLoop(ctx context.Context, key string, epoch uint64, fetch FetchFunc[V], merge mergeFunc[V]) {
	var (
		attempts int
		lastErr  *Error
	)
	for {
		if attempts > 0 {
			s.hooks.FetchStarted(key, attempts)
		}
		v, err := fetch(ctx)
		attempts++
		if err == nil {
			s.apply(key, epoch, attempts, v, nil, merge)
			return
		}
		lastErr = AsError(err)
		if !s.retry.ShouldRetry(attempts, lastErr) {
			break
		}
		delay := s.retry.DelayFor(attempts - 1)
		s.hooks.RetryScheduled(key, attempts, delay, lastErr)
		s.log.Warn("fetch failed; retrying", Fields{
			"family": s.family, "key": key, "attempt": attempts, "delay": delay.String(), "err": lastErr.Message,
		})
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = AsError(err)
			break
		}
	}
	var zero V
	s.apply(key, epoch, attempts, zero, lastErr, merge)
}

// apply commits a resolved fetch to its entry. The result is dropped when the
// entry is gone or its epoch moved while the fetch was in flight; late
// results must never land on an entry that no longer represents the same
// logical query.
func (s *Store[V]) apply(key string, epoch uint64, attempts int, v V, qe *Error, merge mergeFunc[V]) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		s.hooks.ResultDiscarded(key, "removed")
		return
	}
	if e.epoch != epoch {
		s.mu.Unlock()
		s.hooks.ResultDiscarded(key, "epoch_mismatch")
		s.log.Debug("stale result discarded", Fields{"family": s.family, "key": key})
		return
	}

	e.fetching = false
	e.cancel = nil
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
	e.attempts = attempts

	if qe != nil {
		// keep any previously fetched value: an errored refresh surfaces
		// inline, it does not blank the accumulated view
		e.status = StatusError
		e.err = qe
	} else {
		e.value = merge(e.value, e.hasValue, v)
		e.hasValue = true
		e.err = nil
		e.status = StatusSuccess
		e.fetchedAt = s.clock()
	}

	snap := s.snapshotLocked(e)
	subs := append([]subscriber[V](nil), e.subs...)
	s.mu.Unlock()

	if qe == nil {
		s.savePersisted(key, snap)
	} else {
		s.log.Warn("fetch failed", Fields{"family": s.family, "key": key, "attempts": attempts, "err": qe.Message})
	}
	for _, sub := range subs {
		sub.fn(snap)
	}
}

// Fetch is the blocking variant of Ensure: it waits for the in-flight fetch
// (its own or a coalesced one) and returns the settled value or error.
func (s *Store[V]) Fetch(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	res := s.Ensure(ctx, key, fetch)
	if !res.Fetching {
		return res.Value, errOrNil(res.Err)
	}

	s.mu.Lock()
	var done chan struct{}
	if e, ok := s.entries[key]; ok {
		done = e.done
	}
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			var zero V
			return zero, AsError(ctx.Err())
		}
	}

	res, _ = s.Get(key)
	return res.Value, errOrNil(res.Err)
}

// errOrNil avoids a typed-nil *Error escaping as a non-nil error.
func errOrNil(e *Error) error {
	if e == nil {
		return nil
	}
	return e
}

// Subscribe registers fn for status or data changes of key and returns the
// unsubscribe handle. Listeners fire in registration order. When the last
// subscriber leaves, a GC timer starts; the entry survives if a new
// subscriber arrives before it fires.
func (s *Store[V]) Subscribe(key string, fn func(Result[V])) (unsubscribe func()) {
	s.mu.Lock()
	e := s.entryLocked(key)
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	id := e.nextSubID
	e.nextSubID++
	e.subs = append(e.subs, subscriber[V]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { s.unsubscribe(key, id) }) }
}

func (s *Store[V]) unsubscribe(key string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	for i, sub := range e.subs {
		if sub.id == id {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			break
		}
	}
	if len(e.subs) == 0 {
		s.scheduleGCLocked(e)
	}
}

// Invalidate marks the entry for key stale and bumps its epoch so any
// in-flight result is discarded on arrival. The cached value survives until
// the next Ensure replaces it.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.epoch++
	e.fetchedAt = time.Time{}
	s.abortLocked(e)
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Del(context.Background(), s.persistKey(key)); err != nil {
			s.hooks.PersistError(key, "del", err)
		}
	}
}

// Remove drops the entry for key entirely, canceling any in-flight fetch.
func (s *Store[V]) Remove(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.epoch++
	s.abortLocked(e)
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	delete(s.entries, key)
	s.mu.Unlock()
}

// abortLocked tears down the in-flight state after an epoch bump. The fetch
// goroutine's eventual apply will see the moved epoch and discard.
func (s *Store[V]) abortLocked(e *entry[V]) {
	if !e.fetching {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.fetching = false
	close(e.done)
	e.done = nil
	if !e.hasValue {
		e.status = StatusIdle
	}
}

// Close cancels all in-flight fetches and drops every entry.
func (s *Store[V]) Close() {
	s.mu.Lock()
	for key, e := range s.entries {
		e.epoch++
		s.abortLocked(e)
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

func (s *Store[V]) entryLocked(key string) *entry[V] {
	e, ok := s.entries[key]
	if !ok {
		e = &entry[V]{key: key}
		s.entries[key] = e
		// unreferenced entries are reaped even if nobody ever subscribes
		s.scheduleGCLocked(e)
	}
	return e
}

func (s *Store[V]) scheduleGCLocked(e *entry[V]) {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	key := e.key
	e.gcTimer = time.AfterFunc(s.gcTime, func() { s.evict(key) })
}

func (s *Store[V]) evict(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || len(e.subs) > 0 {
		s.mu.Unlock()
		return
	}
	if e.fetching {
		// try again after the fetch settles
		s.scheduleGCLocked(e)
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()
	s.hooks.EntryEvicted(key)
	s.log.Debug("entry evicted", Fields{"family": s.family, "key": key})
}

func (s *Store[V]) snapshotLocked(e *entry[V]) Result[V] {
	return Result[V]{
		Value:        e.value,
		HasValue:     e.hasValue,
		Status:       e.status,
		Err:          e.err,
		UpdatedAt:    e.fetchedAt,
		Fetching:     e.fetching,
		FetchingMore: e.fetching && e.kind == fetchAppend,
	}
}

// maybeSeedLocked loads a persisted snapshot into a cold entry once. The
// seeded value keeps its original fetch time, so freshness decisions carry
// across restarts. Called with s.mu held; releases and re-acquires it around
// the provider round trip.
func (s *Store[V]) maybeSeedLocked(ctx context.Context, e *entry[V]) {
	if s.persist == nil || e.persistTried || e.hasValue {
		return
	}
	e.persistTried = true
	key, epoch := e.key, e.epoch
	s.mu.Unlock()

	v, at, ok := s.loadPersisted(ctx, key)

	s.mu.Lock()
	if !ok || e.hasValue || e.epoch != epoch {
		return
	}
	e.value = v
	e.hasValue = true
	e.status = StatusSuccess
	e.fetchedAt = at
}

func (s *Store[V]) persistKey(key string) string { return "snap:" + key }

func (s *Store[V]) loadPersisted(ctx context.Context, key string) (V, time.Time, bool) {
	var zero V
	raw, ok, err := s.persist.Get(ctx, s.persistKey(key))
	if err != nil {
		s.hooks.PersistError(key, "load", err)
		return zero, time.Time{}, false
	}
	if !ok {
		return zero, time.Time{}, false
	}
	at, payload, err := snapwire.Decode(raw)
	if err != nil {
		_ = s.persist.Del(ctx, s.persistKey(key)) // self-heal corrupt
		return zero, time.Time{}, false
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		_ = s.persist.Del(ctx, s.persistKey(key)) // self-heal
		return zero, time.Time{}, false
	}
	return v, at, true
}

func (s *Store[V]) savePersisted(key string, snap Result[V]) {
	if s.persist == nil {
		return
	}
	payload, err := s.codec.Encode(snap.Value)
	if err != nil {
		s.hooks.PersistError(key, "save", err)
		return
	}
	b := snapwire.Encode(snap.UpdatedAt, payload)
	if _, err := s.persist.Set(context.Background(), s.persistKey(key), b, int64(len(b)), s.gcTime); err != nil {
		s.hooks.PersistError(key, "save", err)
	}
}
