package caseflow

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/caseflow/codec"
	"github.com/unkn0wn-root/caseflow/provider"
)

// FetchFunc produces a value for a cache entry. The store supplies the
// context; implementations delegate to the external service and must not
// retry on their own (RetryPolicy owns the budget).
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Options tune the behavior of a Store. Only Family is required; others
// have defaults resolved in NewStore.
type Options[V any] struct {
	// Required. Logical query family ("cases", "stats", "trend", ...),
	// used to isolate persisted snapshots and label log lines.
	Family string

	StaleTime time.Duration // 0 => DefaultStaleTime (2m)
	GCTime    time.Duration // 0 => DefaultGCTime (10m)
	Retry     *RetryPolicy  // nil => ReadRetry()
	Logger    Logger        // nil => NopLogger
	Hooks     Hooks         // nil => NopHooks

	// Persist enables a second-level byte store (e.g. ristretto, bigcache,
	// redis) so snapshots survive a restart. Requires Codec.
	Persist provider.Provider
	Codec   codec.Codec[V]
}

// NewStore validates opts and builds a Store.
func NewStore[V any](opts Options[V]) (*Store[V], error) {
	if opts.Family == "" {
		return nil, fmt.Errorf("caseflow: family is required")
	}
	if opts.Persist != nil && opts.Codec == nil {
		return nil, fmt.Errorf("caseflow: persist requires a codec")
	}

	s := &Store[V]{
		family:  opts.Family,
		entries: make(map[string]*entry[V]),
		persist: opts.Persist,
		codec:   opts.Codec,
		clock:   time.Now,
		sleep:   sleepCtx,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.staleTime = coalesce[time.Duration](opts.StaleTime, DefaultStaleTime)
	s.gcTime = coalesce[time.Duration](opts.GCTime, DefaultGCTime)
	if opts.Retry != nil {
		s.retry = *opts.Retry
	} else {
		s.retry = ReadRetry()
	}

	return s, nil
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
