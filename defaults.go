package caseflow

import "time"

const (
	// DefaultStaleTime is how long a successful fetch is served without
	// re-fetching.
	DefaultStaleTime = 2 * time.Minute

	// DefaultGCTime is how long an entry with zero subscribers is retained
	// before eviction.
	DefaultGCTime = 10 * time.Minute

	// DefaultPageSize is the page size requested from the service.
	DefaultPageSize = 100
)
