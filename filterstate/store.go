// Package filterstate owns the active filter descriptor. It is an explicit,
// injectable container: the application root constructs one and hands it to
// consumers by reference; there is no ambient singleton. Changes publish to
// listeners in registration order.
package filterstate

import (
	"sync"

	"github.com/unkn0wn-root/caseflow/cases"
)

// Listener observes filter replacements.
type Listener func(cases.Filter)

type subscriber struct {
	id int
	fn Listener
}

// Store holds the current filter. The filter itself is a value: Replace
// swaps it wholesale, Current returns a copy, nothing mutates in place.
type Store struct {
	mu      sync.Mutex
	current cases.Filter
	subs    []subscriber
	nextID  int
}

// New builds a store holding initial.
func New(initial cases.Filter) *Store {
	return &Store{current: initial}
}

// Current returns the active filter.
func (s *Store) Current() cases.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace installs f as the active filter and notifies listeners in
// registration order. Notification runs on the caller's goroutine, so by
// the time Replace returns every consumer has observed the new filter.
func (s *Store) Replace(f cases.Filter) {
	s.mu.Lock()
	s.current = f
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(f)
	}
}

// Subscribe registers fn and returns its unsubscribe handle.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}
