package caseflow

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds re-attempts of a failed fetch and computes the backoff
// delay between them. It is applied by the store's fetch wrapper, never by
// the transport, so the same policy works over any Service implementation.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the initial failure.
	MaxRetries int
	// Base is the delay before the first retry. 0 => 1s.
	Base time.Duration
	// Cap bounds the exponential growth. 0 => 10s.
	Cap time.Duration
}

// ReadRetry is the policy for regular read queries.
func ReadRetry() RetryPolicy { return RetryPolicy{MaxRetries: 2} }

// AnalysisRetry is the policy for expensive analysis operations.
func AnalysisRetry() RetryPolicy { return RetryPolicy{MaxRetries: 1} }

// PreflightRetry never retries; used for idempotency-sensitive checks.
func PreflightRetry() RetryPolicy { return RetryPolicy{MaxRetries: 0} }

// ShouldRetry reports whether another attempt may be made after the given
// number of failed attempts. Errors marked non-retryable never retry,
// regardless of the budget.
func (p RetryPolicy) ShouldRetry(attempts int, err error) bool {
	qe := AsError(err)
	if qe == nil || !qe.Retryable {
		return false
	}
	return attempts <= p.MaxRetries
}

// DelayFor returns the backoff delay before retry attempt (0-based):
// min(Base * 2^attempt, Cap).
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.Multiplier = 2
	b.MaxInterval = p.Cap
	if b.MaxInterval <= 0 {
		b.MaxInterval = 10 * time.Second
	}
	b.RandomizationFactor = 0 // deterministic schedule
	b.MaxElapsedTime = 0      // bounded by MaxRetries, not wall clock
	b.Reset()

	d := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}
