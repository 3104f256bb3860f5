// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// A Scheduler defers the invocation of tasks.
//
// Implementations must never run a task synchronously within the
// caller's stack frame. This keeps stack depth constant no matter how
// many steps are chained, and it means a misbehaving step cannot unwind
// into the code that scheduled it.
type Scheduler interface {
	Schedule(task func())
}

// Pool is a [Scheduler] backed by a FIFO queue drained by a fixed number
// of worker goroutines.
//
// Tasks are started in the order they were scheduled. With a single
// worker (see [NewLoop]) tasks also finish in that order and never
// overlap, which gives a cooperative event loop: every step and every
// continuation of a flow is linearized on one goroutine.
//
// A Pool must be closed with [Pool.Close] to release its workers.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	group  errgroup.Group
	logger *slog.Logger
}

// NewPool starts a Pool with the given number of workers. Values less
// than one are treated as one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{logger: slog.Default()}
	p.cond = sync.NewCond(&p.mu)
	for range workers {
		p.group.Go(p.work)
	}
	return p
}

// NewLoop starts a single-worker [Pool].
//
// All tasks scheduled on a loop run one at a time, in submission order.
func NewLoop() *Pool {
	return NewPool(1)
}

var defaultLoop = sync.OnceValue(NewLoop)

// DefaultScheduler returns the process-wide loop used by flows that are
// not configured with [WithScheduler]. It is started on first use and
// never closed.
func DefaultScheduler() Scheduler {
	return defaultLoop()
}

// Schedule enqueues a task. It panics with [ErrSchedulerClosed] once
// [Pool.Close] has been called, so a flow started on a closed pool fails
// loudly instead of never completing. Use [Pool.TrySchedule] to get the
// error instead.
func (p *Pool) Schedule(task func()) {
	if err := p.TrySchedule(task); err != nil {
		panic(err)
	}
}

// TrySchedule enqueues a task, returning [ErrSchedulerClosed] if the
// pool no longer accepts work.
func (p *Pool) TrySchedule(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSchedulerClosed
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Len returns the number of tasks waiting to be started.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting new tasks, waits for the queued tasks to run and
// then for the workers to exit. It is safe to call more than once.
//
// Close must not be called from a task running on the same pool. Tasks
// that schedule more work while the queue drains panic with
// [ErrSchedulerClosed]; the panic is recovered and logged by the worker.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return p.group.Wait()
}

func (p *Pool) work() error {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return nil
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		// Steps are already guarded by the engine; this catches raw tasks.
		if err := safeCall(task); err != nil {
			p.logger.Error("task panicked", "error", err)
		}
	}
}
