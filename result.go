package caseflow

import "time"

// Status is the lifecycle state of a cache entry.
type Status int

const (
	// StatusIdle: entry exists but nothing was ever fetched for it.
	StatusIdle Status = iota
	// StatusLoading: first fetch in flight, no data yet.
	StatusLoading
	// StatusSuccess: last fetch succeeded; Value is populated.
	StatusSuccess
	// StatusError: last fetch failed. A previously fetched Value, if any,
	// is retained; a failed refresh never blanks the view.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a point-in-time snapshot of a cache entry, safe to hold across
// further store mutation.
type Result[V any] struct {
	Value     V
	HasValue  bool
	Status    Status
	Err       *Error
	UpdatedAt time.Time

	// Fetching reports an in-flight fetch of any kind (initial, refresh,
	// or append).
	Fetching bool
	// FetchingMore reports an in-flight append fetch (next page).
	FetchingMore bool
}

func (r Result[V]) IsLoading() bool { return r.Status == StatusLoading }
func (r Result[V]) IsError() bool   { return r.Status == StatusError }
func (r Result[V]) IsSuccess() bool { return r.Status == StatusSuccess }
