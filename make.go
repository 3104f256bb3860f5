// SPDX-License-Identifier: Apache-2.0

package flw

import "slices"

// MakeSeries captures steps and returns a [Flow] that runs them with
// [Series] when it is given a Context and a Done callback.
//
// This is useful for building a flow once and running it many times, or
// for nesting it in another flow via [Flow.Step].
//
// Example:
//
//	var provision = flw.MakeSeries(
//	    CreateInstance,
//	    flw.MakeParallel(CreateDB("app"), CreateDB("audit")).Step(),
//	    Verify,
//	)
//
//	provision(nil, func(err error, c *flw.Context) { ... })
func MakeSeries(steps ...Step) Flow {
	return MakeSeriesWith(nil, steps...)
}

// MakeSeriesWith is [MakeSeries] with options applied to every run.
func MakeSeriesWith(opts []Option, steps ...Step) Flow {
	return makeFlow("make.series", Series, opts, steps)
}

// MakeParallel captures steps and returns a [Flow] that runs them with
// [Parallel] when it is given a Context and a Done callback.
func MakeParallel(steps ...Step) Flow {
	return MakeParallelWith(nil, steps...)
}

// MakeParallelWith is [MakeParallel] with options applied to every run.
func MakeParallelWith(opts []Option, steps ...Step) Flow {
	return makeFlow("make.parallel", Parallel, opts, steps)
}

// makeFlow defers exec until the Flow is called. The returned Flow
// panics with a *ConfigError if it is called without a Done callback.
func makeFlow(
	op string,
	exec func([]Step, *Context, Done, ...Option),
	opts []Option,
	steps []Step,
) Flow {
	steps = slices.Clone(steps)
	opts = slices.Clone(opts)
	return func(c *Context, done Done) {
		if done == nil {
			panic(&ConfigError{Op: op, Reason: "done must not be nil"})
		}
		exec(steps, Enrich(c), done, opts...)
	}
}
