// SPDX-License-Identifier: Apache-2.0

// Package flw sequences and parallelizes callback-style steps over a
// shared, mutable context, with cooperative early stop and per-step
// result capture.
//
// # Core Concepts
//
// [Step] is the fundamental building block. A step receives the shared
// [Context] and a [Callback] that it must eventually call exactly once:
//
//	type Step = func(c *Context, cb Callback)
//	type Callback = func(err error, result any)
//
// Steps pass data to each other through the Context. [Context.Store]
// turns a callback into one that records the result under a key, and
// [Context.Stop] asks a [Series] to skip its remaining steps:
//
//	flw.Series([]flw.Step{
//	    func(c *flw.Context, cb flw.Callback) {
//	        lookupCache(c.Store("cached", cb))
//	    },
//	    func(c *flw.Context, cb flw.Callback) {
//	        if v, _ := c.Get("cached"); v != nil {
//	            c.Stop("cache hit", cb)
//	            return
//	        }
//	        fetch(c.Store("fresh", cb))
//	    },
//	    Render,
//	}, nil, func(err error, c *flw.Context) {
//	    // c.Clean() holds "cached" and, unless stopped, "fresh".
//	})
//
// # Executors
//
//   - [Series] runs steps in order and stops at the first error.
//   - [Parallel] launches all steps at once and completes exactly once,
//     with the first error or after every step succeeds.
//   - [Each] and [EachLimit] apply a function to every item of a slice
//     with bounded concurrency. Results arrive in completion order.
//   - [N] and [Times] repeat a function count times, strictly in order.
//
// [MakeSeries] and [MakeParallel] capture a step list as a [Flow] that
// can be run later, or nested in another flow with [Flow.Step]. [Wrap]
// adapts a plain callback-style function into a step that stores its
// result.
//
// # Scheduling
//
// No step is ever run on the stack of the code that launched it. Every
// step, and every continuation of a flow, is posted to a [Scheduler].
// The default is a process-wide single-goroutine loop, so unless a step
// hands work to another goroutine, everything a flow does is linearized.
// Use [WithScheduler] with a [Pool] for more workers, or with a
// [Throttle] to pace dispatch.
//
// # Blocking Callers
//
// [Run] and [Await] bridge flows to ordinary blocking Go code and to
// [context.Context] cancellation.
package flw
