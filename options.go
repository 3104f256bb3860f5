// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// An Option configures how a flow or iterator runs.
type Option func(*options)

type options struct {
	scheduler Scheduler
	logger    *slog.Logger
}

// WithScheduler runs the steps of a flow on s instead of
// [DefaultScheduler].
//
// Example:
//
//	loop := flw.NewLoop()
//	defer loop.Close()
//	flw.Series(steps, nil, done, flw.WithScheduler(loop))
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLogger configures a flow to use a specific [slog.Logger].
//
// The engine logs at Debug when a flow starts, finishes or observes a
// cooperative stop, and at Warn when a step misbehaves (a callback
// invoked twice, a panic after completion). If no logger is configured,
// [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	flw.Parallel(steps, c, done, flw.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = DefaultScheduler()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// runner carries the per-invocation plumbing shared by every executor.
type runner struct {
	sched Scheduler
	log   *slog.Logger
	start time.Time
}

func newRunner(name string, c *Context, opts []Option) *runner {
	o := newOptions(opts)
	log := o.logger.With("flow", name)
	if c != nil {
		log = log.With("run_id", c.ID().String())
	}
	return &runner{sched: o.scheduler, log: log, start: time.Now()}
}

func (r *runner) started(n int) {
	r.log.Debug("starting flow", "steps", n)
}

func (r *runner) finished(err error) {
	r.log.Debug("finished flow",
		"duration_ms", time.Since(r.start).Milliseconds(),
		"error", err)
}

// invoke schedules call and hands it a callback that is honored at most
// once. The continuation next is itself scheduled, so it never runs on
// the stack of the goroutine that completed the step.
//
// A panic raised by call is reported to next as a *RecoveredPanic.
func invoke[R any](r *runner, index int, call func(func(error, R)), next func(error, R)) {
	var fired atomic.Bool
	cb := func(err error, result R) {
		if !fired.CompareAndSwap(false, true) {
			r.log.Warn("callback invoked more than once", "index", index, "error", err)
			return
		}
		r.sched.Schedule(func() { next(err, result) })
	}
	r.sched.Schedule(func() {
		err := safeCall(func() { call(cb) })
		if err == nil {
			return
		}
		if fired.Load() {
			r.log.Warn("step panicked after completing", "index", index, "error", err)
			return
		}
		var zero R
		cb(err, zero)
	})
}
