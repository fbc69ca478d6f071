// Package async wraps a caseflow.Hooks implementation with a bounded worker
// queue so slow sinks (metrics pushes, log shipping) never stall the
// store's fetch path. Events are dropped when the queue is full.
package async

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/caseflow"
)

type Hooks struct {
	inner caseflow.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ caseflow.Hooks = (*Hooks)(nil)

func New(inner caseflow.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Safe to call multiple times.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) FetchStarted(key string, attempt int) {
	h.try(func() { h.inner.FetchStarted(key, attempt) })
}

func (h *Hooks) FetchCoalesced(key string) {
	h.try(func() { h.inner.FetchCoalesced(key) })
}

func (h *Hooks) RetryScheduled(key string, attempt int, delay time.Duration, err error) {
	h.try(func() { h.inner.RetryScheduled(key, attempt, delay, err) })
}

func (h *Hooks) ResultDiscarded(key, reason string) {
	h.try(func() { h.inner.ResultDiscarded(key, reason) })
}

func (h *Hooks) EntryEvicted(key string) {
	h.try(func() { h.inner.EntryEvicted(key) })
}

func (h *Hooks) PersistError(key, op string, err error) {
	h.try(func() { h.inner.PersistError(key, op, err) })
}
