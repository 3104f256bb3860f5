// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"context"
	"runtime/trace"

	"golang.org/x/time/rate"
)

// Throttle is a [Scheduler] that paces the tasks it forwards to another
// Scheduler with a token-bucket [rate.Limiter].
//
// Tasks are forwarded in the order they were scheduled; a task that is
// waiting for a token holds back every task scheduled after it.
type Throttle struct {
	inner   Scheduler
	limiter *rate.Limiter
	pacer   *Pool
}

// RateLimited returns a [Throttle] forwarding to inner at most r tasks
// per second, with bursts of up to b tasks. A burst less than one is
// treated as one. A rate of zero or less would hold back every task past
// the first burst forever, so it is treated as [rate.Inf].
//
// Example:
//
//	loop := flw.NewLoop()
//	defer loop.Close()
//	slow := flw.RateLimited(loop, 10, 1)
//	defer slow.Close()
//	flw.Each(urls, fetch, done, flw.WithScheduler(slow))
func RateLimited(inner Scheduler, r rate.Limit, b int) *Throttle {
	if b < 1 {
		b = 1
	}
	if r <= 0 {
		r = rate.Inf
	}
	return &Throttle{
		inner:   inner,
		limiter: rate.NewLimiter(r, b),
		pacer:   NewLoop(),
	}
}

// Schedule implements [Scheduler].
func (t *Throttle) Schedule(task func()) {
	t.pacer.Schedule(func() {
		// Fast-path: there's capacity.
		if !t.limiter.Allow() {
			ctx := context.Background()
			region := trace.StartRegion(ctx, "rate limit wait")
			err := t.limiter.Wait(ctx)
			region.End()
			if err != nil {
				t.pacer.logger.Warn("forwarding task without a token", "error", err)
			}
		}
		t.inner.Schedule(task)
	})
}

// Close stops accepting tasks and waits until every pending task has
// been forwarded. The inner Scheduler is not closed.
func (t *Throttle) Close() error {
	return t.pacer.Close()
}
