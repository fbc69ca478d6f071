package caseflow

import "time"

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; the store calls them on
// hot paths while holding no locks. Wrap with hooks/async to offload.
type Hooks interface {
	// A fetch was started for a key (attempt is 0 for the first try).
	FetchStarted(key string, attempt int)

	// Ensure found a fetch already in flight and attached to it.
	FetchCoalesced(key string)

	// RetryPolicy scheduled another attempt after a retryable failure.
	RetryScheduled(key string, attempt int, delay time.Duration, err error)

	// A resolved fetch was dropped because the entry was invalidated or
	// reset while it was in flight. reason ∈ {"epoch_mismatch", "removed"}.
	ResultDiscarded(key, reason string)

	// An entry with zero subscribers outlived its GC time and was removed.
	EntryEvicted(key string)

	// The second-level persistence layer failed. op is "load", "save" or
	// "del".
	PersistError(key, op string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) FetchStarted(string, int)                            {}
func (NopHooks) FetchCoalesced(string)                               {}
func (NopHooks) RetryScheduled(string, int, time.Duration, error)    {}
func (NopHooks) ResultDiscarded(string, string)                      {}
func (NopHooks) EntryEvicted(string)                                 {}
func (NopHooks) PersistError(string, string, error)                  {}
