package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// CircuitBreaker tracks consecutive request failures and forces a cooldown
// pause once they pile up.
//
// Unlike a rejecting breaker, this one never fails requests: when the
// failure streak reaches the threshold, the next request sleeps for the
// pause duration and the streak resets, giving a struggling API room to
// recover while the fleet keeps limping forward.
type CircuitBreaker struct {
	threshold int
	pause     time.Duration
	clock     shared.Clock

	mu       sync.Mutex
	failures int
}

// NewCircuitBreaker creates a breaker that pauses for the given duration
// after threshold consecutive failures. A nil clock means RealClock.
func NewCircuitBreaker(threshold int, pause time.Duration, clock shared.Clock) *CircuitBreaker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CircuitBreaker{
		threshold: threshold,
		pause:     pause,
		clock:     clock,
	}
}

// PauseIfTripped sleeps for the cooldown period when the failure streak
// has reached the threshold, then resets the streak. Returns early with
// the context error if ctx is done first.
func (cb *CircuitBreaker) PauseIfTripped(ctx context.Context) error {
	cb.mu.Lock()
	tripped := cb.failures >= cb.threshold
	failures := cb.failures
	cb.mu.Unlock()

	if !tripped {
		return nil
	}

	log.Printf("circuit breaker: %d consecutive failures, pausing %s", failures, cb.pause)
	if err := shared.SleepCtx(ctx, cb.clock, cb.pause); err != nil {
		return err
	}

	cb.mu.Lock()
	cb.failures = 0
	cb.mu.Unlock()
	return nil
}

// RecordFailure bumps the consecutive failure streak
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	cb.mu.Unlock()
}

// RecordSuccess resets the streak
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	cb.failures = 0
	cb.mu.Unlock()
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Tripped reports whether the next request will pause
func (cb *CircuitBreaker) Tripped() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures >= cb.threshold
}
