// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ==== Test Helpers: Error Variables ====

var error1 = errors.New("error 1")
var error2 = errors.New("error 2")

// ==== Test Helpers: Schedulers ====

// manualScheduler queues tasks until Drain is called, which makes the
// interleaving of steps fully deterministic.
type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualScheduler) Schedule(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, task)
}

// Pending returns the number of queued tasks.
func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain runs queued tasks, including those they schedule, until the
// queue is empty. It returns the number of tasks run.
func (m *manualScheduler) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		task := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		task()
		n++
	}
}

// testLoop starts a loop that is closed when the test ends.
func testLoop(t *testing.T) *Pool {
	t.Helper()
	loop := NewLoop()
	t.Cleanup(func() {
		require.NoError(t, loop.Close())
	})
	return loop
}

// runFlow runs f to completion with a generous timeout.
func runFlow(t *testing.T, f Flow, c *Context) (*Context, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	return Run(ctx, f, c)
}

// ==== Test Helpers: Recorder ====

// recorder tracks which steps ran, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

// Calls returns a copy of the recorded step names.
func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Step returns a step that records its name and succeeds.
func (r *recorder) Step(name string) Step {
	return func(_ *Context, cb Callback) {
		r.add(name)
		cb(nil, nil)
	}
}

// Fail returns a step that records its name and fails with err.
func (r *recorder) Fail(name string, err error) Step {
	return func(_ *Context, cb Callback) {
		r.add(name)
		cb(err, nil)
	}
}

// Stop returns a step that records its name and requests a stop.
func (r *recorder) Stop(name, reason string) Step {
	return func(c *Context, cb Callback) {
		r.add(name)
		c.Stop(reason, cb)
	}
}

// ==== Test Helpers: Done Counters ====

// doneCounter counts Done invocations and remembers the last outcome.
type doneCounter struct {
	calls atomic.Int32
	mu    sync.Mutex
	err   error
	ctx   *Context
}

func (d *doneCounter) Done(err error, c *Context) {
	d.calls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	d.ctx = c
}

func (d *doneCounter) Calls() int {
	return int(d.calls.Load())
}

func (d *doneCounter) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// resultCounter is a doneCounter for the iterators.
type resultCounter[R any] struct {
	calls   atomic.Int32
	mu      sync.Mutex
	err     error
	results []R
}

func (d *resultCounter[R]) Done(err error, results []R) {
	d.calls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	d.results = results
}

func (d *resultCounter[R]) Calls() int {
	return int(d.calls.Load())
}

func (d *resultCounter[R]) Outcome() ([]R, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.results, d.err
}
