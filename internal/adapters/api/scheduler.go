package api

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Priority orders competing API requests. Lower values are served first.
type Priority int

const (
	// PriorityCritical is for emergency actions such as refueling a
	// stranded ship
	PriorityCritical Priority = iota
	// PriorityHigh is for revenue-generating market transactions
	PriorityHigh
	// PriorityNormal is for routine navigation (navigate, dock, orbit)
	PriorityNormal
	// PriorityLow is for status refreshes
	PriorityLow
	// PriorityBackground is for probe drift and idle polling
	PriorityBackground
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	case PriorityBackground:
		return "BACKGROUND"
	default:
		return "UNKNOWN"
	}
}

// ErrSchedulerStopped is returned to waiters released by Stop
var ErrSchedulerStopped = errors.New("request scheduler stopped")

const drainInterval = 100 * time.Millisecond

// TokenSource hands out request tokens without blocking. Refund returns a
// token taken for a waiter that vanished before it could be granted.
// Implementations are called under the scheduler lock, one at a time.
type TokenSource interface {
	TryTake() bool
	Refund()
}

// localBucket adapts rate.Limiter to the TokenSource interface
type localBucket struct {
	limiter *rate.Limiter
	last    *rate.Reservation
}

func (b *localBucket) TryTake() bool {
	r := b.limiter.ReserveN(time.Now(), 1)
	if !r.OK() || r.Delay() > 0 {
		r.Cancel()
		return false
	}
	b.last = r
	return true
}

func (b *localBucket) Refund() {
	if b.last != nil {
		b.last.Cancel()
		b.last = nil
	}
}

// waiter states
const (
	waiterPending int32 = iota
	waiterGranted
	waiterAbandoned
)

type waiter struct {
	priority Priority
	seq      uint64
	state    atomic.Int32
	ready    chan struct{}
}

// waiterQueue is a min-heap ordered by priority, then arrival order
type waiterQueue []*waiter

func (q waiterQueue) Len() int { return len(q) }
func (q waiterQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q waiterQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *waiterQueue) Push(x any) { *q = append(*q, x.(*waiter)) }
func (q *waiterQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return w
}

// RequestScheduler is an in-process priority rate limiter shared by every
// ship in the fleet.
//
// A token bucket (rate tokens/sec, burst capacity) feeds a priority queue:
// when a token is free and nobody is queued, Acquire takes it directly;
// otherwise the caller enqueues and a 10 Hz drain loop hands tokens to the
// best waiter (priority, then arrival order). Stop releases every waiter
// so shutdown never leaves goroutines parked here.
type RequestScheduler struct {
	tokens TokenSource

	mu    sync.Mutex
	queue waiterQueue
	seq   uint64

	stopOnce sync.Once
	stopped  chan struct{}
	drainWG  sync.WaitGroup
	started  bool
}

// NewRequestScheduler creates a scheduler with an in-process token bucket
// of the given refill rate (tokens per second) and burst capacity.
func NewRequestScheduler(ratePerSec float64, burst int) *RequestScheduler {
	return NewRequestSchedulerWithSource(&localBucket{
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	})
}

// NewRequestSchedulerWithSource creates a scheduler fed by an external
// token source, such as the database-backed SharedBucket that splits one
// API budget across several processes.
func NewRequestSchedulerWithSource(source TokenSource) *RequestScheduler {
	return &RequestScheduler{
		tokens:  source,
		stopped: make(chan struct{}),
	}
}

// Start launches the background drain loop. Must be called once before
// Acquire can make progress under contention.
func (s *RequestScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.drainWG.Add(1)
	go s.drainLoop()
}

// Stop halts the drain loop and wakes every waiter. Waiters released this
// way get ErrSchedulerStopped.
func (s *RequestScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
	})
	s.drainWG.Wait()

	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

// Acquire blocks until a token is consumed at the given priority, the
// context is done, or the scheduler stops.
func (s *RequestScheduler) Acquire(ctx context.Context, priority Priority) error {
	select {
	case <-s.stopped:
		return ErrSchedulerStopped
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	// Fast path: token available and nobody queued ahead of us
	if s.queue.Len() == 0 && s.tokens.TryTake() {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	w := &waiter{priority: priority, seq: s.seq, ready: make(chan struct{})}
	heap.Push(&s.queue, w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		if w.state.CompareAndSwap(waiterPending, waiterAbandoned) {
			return ctx.Err()
		}
		// Token was granted while we were cancelling; use it.
		return nil
	case <-s.stopped:
		if w.state.CompareAndSwap(waiterPending, waiterAbandoned) {
			return ErrSchedulerStopped
		}
		return nil
	}
}

// QueueDepth returns the number of requests currently waiting
func (s *RequestScheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.queue {
		if w.state.Load() == waiterPending {
			n++
		}
	}
	return n
}

func (s *RequestScheduler) drainLoop() {
	defer s.drainWG.Done()
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			s.drain()
		}
	}
}

// drain hands tokens to the best pending waiters while both last
func (s *RequestScheduler) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() > 0 {
		// Abandoned waiters are dropped without costing a token
		if s.queue[0].state.Load() == waiterAbandoned {
			heap.Pop(&s.queue)
			continue
		}

		if !s.tokens.TryTake() {
			return
		}

		w := heap.Pop(&s.queue).(*waiter)
		if w.state.CompareAndSwap(waiterPending, waiterGranted) {
			close(w.ready)
		} else {
			// Lost the race with cancellation; refund the token
			s.tokens.Refund()
		}
	}
}
