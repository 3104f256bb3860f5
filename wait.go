// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"context"
)

// Run starts f on c and blocks until it completes or ctx is done.
//
// A nil c starts from an empty Context. If ctx is done first, Run
// requests a cooperative stop on c, using the context's cause as the
// reason, and returns ctx.Err() without waiting for steps that are
// already running.
//
// Run blocks the calling goroutine, so it must not be called from a step
// or task running on the [Scheduler] the flow uses: on a single-worker
// loop, including [DefaultScheduler], the flow could never make progress
// and Run would only return once ctx is done.
//
// Example:
//
//	c, err := flw.Run(ctx, flw.MakeSeries(Fetch, Parse, Save), nil)
//	if err != nil {
//	    return err
//	}
//	return json.NewEncoder(w).Encode(c.Clean())
func Run(ctx context.Context, f Flow, c *Context) (*Context, error) {
	c = Enrich(c)
	errs := make(chan error, 1)
	f(c, func(err error, _ *Context) {
		errs <- err
	})
	select {
	case err := <-errs:
		return c, err
	case <-ctx.Done():
		c.markStopped(context.Cause(ctx).Error())
		return c, ctx.Err()
	}
}

// Await starts an iterator and blocks until it completes or ctx is done.
// Like [Run], it must not be called from a task running on the
// [Scheduler] the iterator uses.
//
// Example:
//
//	pages, err := flw.Await(ctx, func(done func(error, []Page)) {
//	    flw.EachLimit(urls, 4, fetch, done)
//	})
func Await[R any](ctx context.Context, start func(done func(error, []R))) ([]R, error) {
	type outcome struct {
		results []R
		err     error
	}
	ch := make(chan outcome, 1)
	start(func(err error, results []R) {
		ch <- outcome{results: results, err: err}
	})
	select {
	case o := <-ch:
		return o.results, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
