// SPDX-License-Identifier: Apache-2.0

package flw

// A Callback reports the completion of one unit of work.
//
// Any non-nil err is treated as a failure and short-circuits the
// enclosing flow. result is optional; [Series] and [Parallel] ignore it,
// and [Context.Store] records it.
type Callback = func(err error, result any)

// A Step is a unit of work run against a shared [Context].
//
// A step must eventually call cb exactly once, either before returning
// or later from any goroutine. The engine honors only the first call.
type Step = func(c *Context, cb Callback)

// Done receives the outcome of a [Series] or [Parallel] together with
// the Context the steps ran against.
type Done = func(err error, c *Context)

// A Flow is a pre-bound series or parallel run, created by [MakeSeries]
// or [MakeParallel], waiting for a Context and a [Done] callback.
type Flow func(c *Context, done Done)

// Step adapts f so that it can be nested inside another flow.
//
// Example:
//
//	setup := flw.MakeParallel(OpenDB, OpenCache)
//	flw.Series([]flw.Step{setup.Step(), Migrate, Serve}, nil, done)
func (f Flow) Step() Step {
	return func(c *Context, cb Callback) {
		f(c, func(err error, c *Context) {
			cb(err, c)
		})
	}
}
