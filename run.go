// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"sync/atomic"
)

// Series runs steps one at a time, in order, against one shared Context.
//
// A nil c starts from an empty Context. The first step error is passed
// to done together with c, as mutated so far, and the remaining steps
// never run. Once a step requests a cooperative stop with
// [Context.Stop], the remaining steps are skipped and done receives a
// nil error.
//
// Steps share data through c:
//
//	flw.Series([]flw.Step{
//	    func(c *flw.Context, cb flw.Callback) {
//	        fetchCount(c.Store("count", cb))
//	    },
//	    func(c *flw.Context, cb flw.Callback) {
//	        n, _ := flw.Lookup[int](c, "count")
//	        report(n, cb)
//	    },
//	}, nil, func(err error, c *flw.Context) {
//	    // ...
//	})
//
// Series returns immediately; every step, and done, runs on the
// configured [Scheduler]. It panics with a *[ConfigError] if done is nil.
func Series(steps []Step, c *Context, done Done, opts ...Option) {
	if done == nil {
		panic(&ConfigError{Op: "series", Reason: "done must not be nil"})
	}
	c = Enrich(c)
	r := newRunner("series", c, opts)
	r.started(len(steps))

	finish := func(err error) {
		r.finished(err)
		done(err, c)
	}

	var next func(i int)
	next = func(i int) {
		if i >= len(steps) {
			finish(nil)
			return
		}
		if reason, ok := c.Stopped(); ok {
			r.log.Debug("flow stopped", "reason", reason, "index", i)
			finish(nil)
			return
		}
		step := steps[i]
		invoke(r, i, func(cb func(error, any)) {
			if step == nil {
				cb(&IndexedError{Index: i, Err: ErrNilStep}, nil)
				return
			}
			step(c, cb)
		}, func(err error, _ any) {
			if err != nil {
				finish(err)
				return
			}
			next(i + 1)
		})
	}
	r.sched.Schedule(func() { next(0) })
}

// Parallel launches every step at once against one shared Context.
//
// done is called exactly once: with the first error reported by any
// step, or with a nil error after all steps succeed. Errors and
// completions that arrive after that are discarded. Steps that are still
// running are not interrupted, and a cooperative stop has no effect on
// steps that were already launched.
//
// Steps may run concurrently when the configured [Scheduler] has more
// than one worker, or when they complete asynchronously; steps writing
// to the same Context keys must coordinate among themselves.
//
// Parallel panics with a *[ConfigError] if done is nil.
func Parallel(steps []Step, c *Context, done Done, opts ...Option) {
	if done == nil {
		panic(&ConfigError{Op: "parallel", Reason: "done must not be nil"})
	}
	c = Enrich(c)
	r := newRunner("parallel", c, opts)
	r.started(len(steps))

	if len(steps) == 0 {
		r.sched.Schedule(func() {
			r.finished(nil)
			done(nil, c)
		})
		return
	}

	var completed atomic.Bool
	var remaining atomic.Int64
	remaining.Store(int64(len(steps)))

	finish := func(err error) {
		if !completed.CompareAndSwap(false, true) {
			if err != nil {
				r.log.Debug("discarding late error", "error", err)
			}
			return
		}
		r.finished(err)
		done(err, c)
	}

	for i, step := range steps {
		invoke(r, i, func(cb func(error, any)) {
			if step == nil {
				cb(&IndexedError{Index: i, Err: ErrNilStep}, nil)
				return
			}
			step(c, cb)
		}, func(err error, _ any) {
			if err != nil {
				finish(err)
				return
			}
			if remaining.Add(-1) == 0 {
				finish(nil)
			}
		})
	}
}
