package caseflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/caseflow/codec"
	"github.com/unkn0wn-root/caseflow/internal/snapwire"
	"github.com/unkn0wn-root/caseflow/provider"
)

type record struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// fakeClock is a mutable now() safe to advance while fetches run.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingHooks captures hook events for assertions.
type recordingHooks struct {
	mu         sync.Mutex
	started    []int
	coalesced  int
	retries    []time.Duration
	discarded  []string
	evicted    []string
	persistOps []string
}

var _ Hooks = (*recordingHooks)(nil)

func (h *recordingHooks) FetchStarted(_ string, attempt int) {
	h.mu.Lock()
	h.started = append(h.started, attempt)
	h.mu.Unlock()
}

func (h *recordingHooks) FetchCoalesced(string) {
	h.mu.Lock()
	h.coalesced++
	h.mu.Unlock()
}

func (h *recordingHooks) RetryScheduled(_ string, _ int, delay time.Duration, _ error) {
	h.mu.Lock()
	h.retries = append(h.retries, delay)
	h.mu.Unlock()
}

func (h *recordingHooks) ResultDiscarded(_, reason string) {
	h.mu.Lock()
	h.discarded = append(h.discarded, reason)
	h.mu.Unlock()
}

func (h *recordingHooks) EntryEvicted(key string) {
	h.mu.Lock()
	h.evicted = append(h.evicted, key)
	h.mu.Unlock()
}

func (h *recordingHooks) PersistError(_, op string, _ error) {
	h.mu.Lock()
	h.persistOps = append(h.persistOps, op)
	h.mu.Unlock()
}

func (h *recordingHooks) snapshot() recordingHooks {
	h.mu.Lock()
	defer h.mu.Unlock()
	return recordingHooks{
		started:    append([]int(nil), h.started...),
		coalesced:  h.coalesced,
		retries:    append([]time.Duration(nil), h.retries...),
		discarded:  append([]string(nil), h.discarded...),
		evicted:    append([]string(nil), h.evicted...),
		persistOps: append([]string(nil), h.persistOps...),
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestStore(t *testing.T, mod func(*Options[record])) (*Store[record], *fakeClock) {
	t.Helper()
	opts := Options[record]{Family: "cases"}
	if mod != nil {
		mod(&opts)
	}
	s, err := NewStore[record](opts)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	clk := newFakeClock()
	s.clock = clk.Now
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s, clk
}

// ==============================
// Coalescing and freshness
// ==============================

// TestEnsureCoalescesConcurrentCallers verifies that any number of
// concurrent callers for one key produce exactly one upstream fetch.
func TestEnsureCoalescesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, func(o *Options[record]) { o.Hooks = hooks })
	defer s.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		<-gate
		return record{ID: "1", Label: "ada"}, nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]record, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Fetch(ctx, "k", fetch)
			if err != nil {
				t.Errorf("Fetch: %v", err)
			}
			results[i] = v
		}(i)
	}

	waitFor(t, func() bool { return calls.Load() == 1 }, "fetch to start")
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	for i, v := range results {
		if v.ID != "1" {
			t.Fatalf("caller %d saw %+v", i, v)
		}
	}
	if h := hooks.snapshot(); h.coalesced == 0 {
		t.Fatalf("expected coalesced hook to fire")
	}
}

// TestEnsureServesFreshWithoutRefetch verifies a fresh entry is served from
// cache and a stale one triggers a background refetch.
func TestEnsureServesFreshWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, func(o *Options[record]) { o.StaleTime = 2 * time.Minute })
	defer s.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		return record{ID: "1"}, nil
	}

	if _, err := s.Fetch(ctx, "k", fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}

	// Within staleTime: cache hit, no fetch.
	clk.Advance(time.Minute)
	res := s.Ensure(ctx, "k", fetch)
	if res.Fetching || !res.IsSuccess() {
		t.Fatalf("expected fresh cache hit, got %+v", res)
	}
	if calls.Load() != 1 {
		t.Fatalf("fresh entry refetched: %d calls", calls.Load())
	}

	// Past staleTime: served immediately, refreshed in background.
	clk.Advance(2 * time.Minute)
	res = s.Ensure(ctx, "k", fetch)
	if !res.HasValue || !res.Fetching {
		t.Fatalf("expected stale entry with refresh in flight, got %+v", res)
	}
	waitFor(t, func() bool { return calls.Load() == 2 }, "background refetch")
}

// TestRefetchIgnoresFreshness verifies Refetch bypasses the staleTime check.
func TestRefetchIgnoresFreshness(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	defer s.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		return record{ID: "1"}, nil
	}

	if _, err := s.Fetch(ctx, "k", fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	s.Refetch(ctx, "k", fetch)
	waitFor(t, func() bool { return calls.Load() == 2 }, "forced refetch")
}

// ==============================
// Retry behavior
// ==============================

// TestRetryTransientThenSuccess verifies a transient failure consumes the
// retry budget with the expected backoff schedule and then lands the value.
func TestRetryTransientThenSuccess(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, func(o *Options[record]) { o.Hooks = hooks })
	defer s.Close()

	var delays []time.Duration
	var mu sync.Mutex
	s.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		if calls.Add(1) < 3 {
			return record{}, Transient("upstream unavailable", 503, nil)
		}
		return record{ID: "1"}, nil
	}

	v, err := s.Fetch(ctx, "k", fetch)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v.ID != "1" {
		t.Fatalf("unexpected value %+v", v)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}

	mu.Lock()
	defer mu.Unlock()
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
	if h := hooks.snapshot(); len(h.retries) != 2 {
		t.Fatalf("expected 2 RetryScheduled hooks, got %d", len(h.retries))
	}
}

// TestTerminalErrorNoRetry verifies non-retryable failures surface after a
// single attempt.
func TestTerminalErrorNoRetry(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	defer s.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		return record{}, Terminal("no such case", 404, nil)
	}

	_, err := s.Fetch(ctx, "k", fetch)
	if err == nil {
		t.Fatalf("expected error")
	}
	qe := AsError(err)
	if qe.Retryable || qe.StatusCode != 404 {
		t.Fatalf("unexpected error %+v", qe)
	}
	if calls.Load() != 1 {
		t.Fatalf("terminal error retried: %d calls", calls.Load())
	}
}

// TestRetryBudgetExhausted verifies the last transient error surfaces once
// MaxRetries is spent.
func TestRetryBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	rp := RetryPolicy{MaxRetries: 2}
	s, _ := newTestStore(t, func(o *Options[record]) { o.Retry = &rp })
	defer s.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		return record{}, Transient("boom", 500, nil)
	}

	_, err := s.Fetch(ctx, "k", fetch)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 1 initial + 2 retries, got %d calls", calls.Load())
	}
}

// TestFailedRefreshKeepsValue verifies an errored refresh retains the
// previously fetched value alongside the error.
func TestFailedRefreshKeepsValue(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t, nil)
	defer s.Close()

	ok := func(context.Context) (record, error) { return record{ID: "1", Label: "v1"}, nil }
	bad := func(context.Context) (record, error) { return record{}, Terminal("gone", 410, nil) }

	if _, err := s.Fetch(ctx, "k", ok); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	clk.Advance(time.Hour)
	if _, err := s.Fetch(ctx, "k", bad); err == nil {
		t.Fatalf("expected refresh failure")
	}

	res, found := s.Get("k")
	if !found {
		t.Fatalf("entry gone")
	}
	if !res.IsError() || !res.HasValue || res.Value.Label != "v1" {
		t.Fatalf("expected error status with retained value, got %+v", res)
	}
}

// ==============================
// Invalidation and discard
// ==============================

// TestInvalidateDiscardsInFlightResult verifies a fetch resolving after
// Invalidate is dropped, not applied.
func TestInvalidateDiscardsInFlightResult(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, func(o *Options[record]) { o.Hooks = hooks })
	defer s.Close()

	gate := make(chan struct{})
	fetch := func(context.Context) (record, error) {
		<-gate
		return record{ID: "late"}, nil
	}

	s.Ensure(ctx, "k", fetch)
	s.Invalidate("k")
	close(gate)

	waitFor(t, func() bool {
		h := hooks.snapshot()
		return len(h.discarded) == 1 && h.discarded[0] == "epoch_mismatch"
	}, "discard hook")

	res, found := s.Get("k")
	if !found {
		t.Fatalf("entry should survive Invalidate")
	}
	if res.HasValue {
		t.Fatalf("late result applied: %+v", res)
	}
}

// TestRemoveDiscardsInFlightResult verifies a fetch resolving after Remove
// is dropped with the removed reason.
func TestRemoveDiscardsInFlightResult(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, func(o *Options[record]) { o.Hooks = hooks })
	defer s.Close()

	gate := make(chan struct{})
	fetch := func(context.Context) (record, error) {
		<-gate
		return record{ID: "late"}, nil
	}

	s.Ensure(ctx, "k", fetch)
	s.Remove("k")
	close(gate)

	waitFor(t, func() bool {
		h := hooks.snapshot()
		return len(h.discarded) == 1 && h.discarded[0] == "removed"
	}, "discard hook")

	if _, found := s.Get("k"); found {
		t.Fatalf("entry should be gone after Remove")
	}
}

// TestInvalidateForcesRefetch verifies Invalidate zeroes freshness so the
// next Ensure fetches even inside the staleTime window.
func TestInvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	defer s.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		return record{ID: "1"}, nil
	}

	if _, err := s.Fetch(ctx, "k", fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	s.Invalidate("k")
	if _, err := s.Fetch(ctx, "k", fetch); err != nil {
		t.Fatalf("Fetch after Invalidate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected refetch after Invalidate, got %d calls", calls.Load())
	}
}

// ==============================
// Subscribers and GC
// ==============================

// TestSubscribeNotifyOrder verifies listeners fire in registration order on
// every transition.
func TestSubscribeNotifyOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	defer s.Close()

	var mu sync.Mutex
	var order []int
	unsub1 := s.Subscribe("k", func(Result[record]) {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	defer unsub1()
	unsub2 := s.Subscribe("k", func(Result[record]) {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	defer unsub2()

	if _, err := s.Fetch(ctx, "k", func(context.Context) (record, error) {
		return record{ID: "1"}, nil
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) >= 4
	}, "start and settle notifications")

	mu.Lock()
	defer mu.Unlock()
	// Two batches (fetch start, settle), each in registration order.
	want := []int{1, 2, 1, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("notify order = %v, want %v", order, want)
		}
	}
}

// TestGCEvictsUnsubscribedEntry verifies an entry with no subscribers is
// reaped after gcTime and one with a subscriber is kept.
func TestGCEvictsUnsubscribedEntry(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, func(o *Options[record]) {
		o.GCTime = 20 * time.Millisecond
		o.Hooks = hooks
	})
	defer s.Close()

	fetch := func(context.Context) (record, error) { return record{ID: "1"}, nil }

	if _, err := s.Fetch(ctx, "gone", fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	unsub := s.Subscribe("kept", func(Result[record]) {})
	if _, err := s.Fetch(ctx, "kept", fetch); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	waitFor(t, func() bool {
		_, found := s.Get("gone")
		return !found
	}, "eviction of unsubscribed entry")

	if _, found := s.Get("kept"); !found {
		t.Fatalf("subscribed entry evicted")
	}
	h := hooks.snapshot()
	if len(h.evicted) != 1 || h.evicted[0] != "gone" {
		t.Fatalf("evicted hooks = %v", h.evicted)
	}

	// Last unsubscribe restarts the clock.
	unsub()
	waitFor(t, func() bool {
		_, found := s.Get("kept")
		return !found
	}, "eviction after last unsubscribe")
}

// TestSubscribeCancelsPendingGC verifies a new subscriber arriving inside
// the GC window keeps the entry alive.
func TestSubscribeCancelsPendingGC(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, func(o *Options[record]) { o.GCTime = 30 * time.Millisecond })
	defer s.Close()

	if _, err := s.Fetch(ctx, "k", func(context.Context) (record, error) {
		return record{ID: "1"}, nil
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	unsub := s.Subscribe("k", func(Result[record]) {})
	defer unsub()

	time.Sleep(80 * time.Millisecond)
	if _, found := s.Get("k"); !found {
		t.Fatalf("entry evicted despite active subscriber")
	}
}

// ==============================
// Persistence seeding
// ==============================

type memEntry struct {
	v   []byte
	exp time.Time
}

type memProvider struct {
	mu sync.Mutex
	m  map[string]memEntry
}

var _ provider.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

// TestPersistSeedPreservesFreshness verifies a seeded snapshot keeps its
// original fetch time: a fresh one is served without a network call, a
// stale one still triggers the refetch.
func TestPersistSeedPreservesFreshness(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cdc := codec.JSON[record]{}

	seed := func(t *testing.T, at time.Time) {
		t.Helper()
		payload, err := cdc.Encode(record{ID: "seeded"})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		b := snapwire.Encode(at, payload)
		if _, err := mp.Set(ctx, "snap:k", b, int64(len(b)), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	newPersistStore := func(t *testing.T) (*Store[record], *fakeClock) {
		t.Helper()
		return newTestStore(t, func(o *Options[record]) {
			o.Persist = mp
			o.Codec = cdc
			o.StaleTime = 2 * time.Minute
		})
	}

	t.Run("fresh snapshot served without fetch", func(t *testing.T) {
		s, clk := newPersistStore(t)
		defer s.Close()
		seed(t, clk.Now().Add(-time.Minute))

		var calls atomic.Int32
		res := s.Ensure(ctx, "k", func(context.Context) (record, error) {
			calls.Add(1)
			return record{ID: "net"}, nil
		})
		if !res.HasValue || res.Value.ID != "seeded" || res.Fetching {
			t.Fatalf("expected fresh seed, got %+v", res)
		}
		if calls.Load() != 0 {
			t.Fatalf("fresh seed still fetched")
		}
	})

	t.Run("stale snapshot shown then refetched", func(t *testing.T) {
		s, clk := newPersistStore(t)
		defer s.Close()
		seed(t, clk.Now().Add(-time.Hour))

		var calls atomic.Int32
		res := s.Ensure(ctx, "k", func(context.Context) (record, error) {
			calls.Add(1)
			return record{ID: "net"}, nil
		})
		if !res.HasValue || res.Value.ID != "seeded" || !res.Fetching {
			t.Fatalf("expected stale seed with refresh in flight, got %+v", res)
		}
		waitFor(t, func() bool { return calls.Load() == 1 }, "refetch of stale seed")
	})

	t.Run("corrupt snapshot self-heals", func(t *testing.T) {
		s, _ := newPersistStore(t)
		defer s.Close()
		if _, err := mp.Set(ctx, "snap:k", []byte("garbage"), 7, 0); err != nil {
			t.Fatalf("Set: %v", err)
		}

		if _, err := s.Fetch(ctx, "k", func(context.Context) (record, error) {
			return record{ID: "net"}, nil
		}); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		// The corrupt frame was deleted and replaced by the fresh result.
		if !mp.has("snap:k") {
			t.Fatalf("successful fetch not persisted")
		}
		raw, _, err := mp.Get(ctx, "snap:k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if _, _, err := snapwire.Decode(raw); err != nil {
			t.Fatalf("persisted frame still corrupt: %v", err)
		}
	})
}

// slowProvider parks Get on a gate so callers can be held mid-seed.
type slowProvider struct {
	*memProvider
	entered chan struct{} // closed once, on first Get
	gate    chan struct{}

	enterOnce sync.Once
}

func (p *slowProvider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p.enterOnce.Do(func() { close(p.entered) })
	<-p.gate
	return p.memProvider.Get(ctx, key)
}

// TestSeedDoesNotDuplicateInFlightFetch holds one caller inside the
// provider round trip while a second caller's Ensure starts the fetch. The
// first caller must attach to that fetch when it resumes; the key gets one
// upstream call and both callers settle on the same value.
func TestSeedDoesNotDuplicateInFlightFetch(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	sp := &slowProvider{
		memProvider: newMemProvider(),
		entered:     make(chan struct{}),
		gate:        make(chan struct{}),
	}
	s, _ := newTestStore(t, func(o *Options[record]) {
		o.Persist = sp
		o.Codec = codec.JSON[record]{}
		o.Hooks = hooks
	})
	defer s.Close()

	var calls atomic.Int32
	fetchGate := make(chan struct{})
	fetch := func(context.Context) (record, error) {
		calls.Add(1)
		<-fetchGate
		return record{ID: "1"}, nil
	}

	// Caller A parks inside Provider.Get.
	aDone := make(chan Result[record], 1)
	go func() {
		aDone <- s.Ensure(ctx, "k", fetch)
	}()
	<-sp.entered

	// Caller B arrives while A holds no lock and starts the fetch.
	s.Ensure(ctx, "k", fetch)
	waitFor(t, func() bool { return calls.Load() == 1 }, "fetch to start")

	// A resumes from the seed round trip with B's fetch still in flight.
	close(sp.gate)
	resA := <-aDone
	if !resA.Fetching {
		t.Fatalf("resumed caller did not attach to the in-flight fetch: %+v", resA)
	}

	close(fetchGate)
	waitFor(t, func() bool {
		r, ok := s.Get("k")
		return ok && !r.Fetching
	}, "fetch to settle")

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	res, _ := s.Get("k")
	if !res.IsSuccess() || res.Value.ID != "1" {
		t.Fatalf("settled result = %+v", res)
	}
	if h := hooks.snapshot(); h.coalesced == 0 {
		t.Fatalf("resumed caller should report as coalesced")
	}
}

// TestInvalidateDropsPersistedSnapshot verifies Invalidate removes the
// second-level copy alongside the in-memory freshness.
func TestInvalidateDropsPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, _ := newTestStore(t, func(o *Options[record]) {
		o.Persist = mp
		o.Codec = codec.JSON[record]{}
	})
	defer s.Close()

	if _, err := s.Fetch(ctx, "k", func(context.Context) (record, error) {
		return record{ID: "1"}, nil
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	waitFor(t, func() bool { return mp.has("snap:k") }, "snapshot write")

	s.Invalidate("k")
	if mp.has("snap:k") {
		t.Fatalf("persisted snapshot survived Invalidate")
	}
}
