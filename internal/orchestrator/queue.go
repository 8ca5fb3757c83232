// internal/orchestrator/queue.go
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/storynest/internal/types"
)

// Queue serializes pipeline runs per session while a global semaphore caps
// cross-session parallelism. One FIFO lane per session guarantees that two
// messages from the same session can never interleave their turn appends.
// The busy flag in the UI stays advisory, ordering is enforced here.
type Queue struct {
	lanes     map[types.SessionID]chan *Run
	semaphore *semaphore.Weighted
	processor func(*Run) error
	active    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewQueue creates a Queue allowing up to maxConcurrent runs across all
// session lanes.
func NewQueue(maxConcurrent int64) *Queue {
	return &Queue{
		lanes:     make(map[types.SessionID]chan *Run),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start binds the queue to a lifecycle context. Enqueue before Start is
// a programming error.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the context, closes every lane, and blocks until in-flight
// runs drain.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, lane := range q.lanes {
			close(lane)
		}
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue hands a Run to its session's lane, spinning the lane goroutine up
// on first use. A full lane buffer rejects the run.
func (q *Queue) Enqueue(run *Run) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue stopped")
	}
	sessionID := run.Session.ID
	lane, exists := q.lanes[sessionID]
	if !exists {
		lane = make(chan *Run, 64)
		q.lanes[sessionID] = lane
		q.wg.Add(1)
		go q.processLane(sessionID, lane)
	}

	select {
	case lane <- run:
		return nil
	default:
		return fmt.Errorf("queue full for session %s", sessionID)
	}
}

// processLane drains one session lane, acquiring a semaphore slot before
// invoking the processor synchronously. Strict FIFO within the lane.
func (q *Queue) processLane(sessionID types.SessionID, lane chan *Run) {
	defer q.wg.Done()
	for {
		select {
		case run, ok := <-lane:
			if !ok {
				return
			}
			if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
				return
			}
			if q.processor != nil {
				q.active.Add(1)
				run.Ctx = q.ctx
				if err := q.processor(run); err != nil {
					slog.Error("run failed",
						"run_id", string(run.ID),
						"session_id", string(sessionID),
						"error", err)
					run.complete()
				}
				q.active.Add(-1)
			}
			q.semaphore.Release(1)
		case <-q.ctx.Done():
			return
		}
	}
}

// WaitIdle polls until no run is actively processing or the timeout passes.
// Returns true when idle.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// SetProcessor installs the callback run for every dequeued Run.
func (q *Queue) SetProcessor(fn func(*Run) error) {
	q.processor = fn
}
