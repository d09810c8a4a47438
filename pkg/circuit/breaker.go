// Package circuit implements a per-step circuit breaker that isolates
// chronically failing steps from being retried on every process run.
package circuit

import (
	"sync"
	"time"
)

// Status is the breaker state.
type Status string

const (
	StatusClosed   Status = "CLOSED"
	StatusOpen     Status = "OPEN"
	StatusHalfOpen Status = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 5
	DefaultTimeout          = 60 * time.Second
)

// Breaker tracks consecutive failures for one step ID. A breaker is shared by
// every process run that uses the step, so all state transitions are
// mutex-guarded.
type Breaker struct {
	mu               sync.Mutex
	state            Status
	failureCount     int
	lastFailureTime  time.Time
	failureThreshold int
	timeout          time.Duration

	now func() time.Time
}

// NewBreaker creates a closed breaker. Non-positive threshold or timeout
// fall back to the defaults.
func NewBreaker(failureThreshold int, timeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Breaker{
		state:            StatusClosed,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		now:              time.Now,
	}
}

// CanExecute reports whether a call may go through. An OPEN breaker whose
// cooldown has elapsed transitions to HALF_OPEN and lets a single probe pass.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StatusOpen:
		if b.now().Sub(b.lastFailureTime) > b.timeout {
			b.state = StatusHalfOpen

			return true
		}

		return false
	default:
		return true
	}
}

// RecordSuccess fully resets the breaker to CLOSED.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.state = StatusClosed
}

// RecordFailure increments the failure count and opens the breaker once the
// threshold is reached. A HALF_OPEN failure counts the same as a CLOSED one.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.now()

	if b.failureCount >= b.failureThreshold {
		b.state = StatusOpen
	}
}

// State returns the current breaker status.
func (b *Breaker) State() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.failureCount
}
