// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"slices"
	"sync"
)

// DefaultConcurrency is the number of items [Each] keeps in flight.
const DefaultConcurrency = 3

// Each calls fn for every item, keeping up to [DefaultConcurrency] calls
// in flight. See [EachLimit].
func Each[T, R any](
	items []T,
	fn func(item T, cb func(error, R)),
	done func(err error, results []R),
	opts ...Option,
) {
	EachLimit(items, DefaultConcurrency, fn, done, opts...)
}

// EachLimit calls fn for every item, keeping up to limit calls in
// flight. A limit less than one is treated as one.
//
// Results are collected in the order the calls complete, which is not
// necessarily the order of items when limit is greater than one. Steps
// that need positional correspondence should tag their own results.
//
// The first error stops dispatching; done receives it wrapped in an
// *[IndexedError], together with the results collected so far. The
// error is never the step's own value, so match it with [errors.Is] or
// [errors.As] rather than ==. Calls still in flight are not interrupted,
// and their outcomes are discarded.
// An empty items slice completes with an empty, non-nil result slice
// without calling fn.
//
// Example:
//
//	flw.EachLimit(ids, 2,
//	    func(id int, cb func(error, *User)) {
//	        users.Load(id, cb)
//	    },
//	    func(err error, loaded []*User) {
//	        // ...
//	    },
//	)
//
// EachLimit panics with a *[ConfigError] if done is nil.
func EachLimit[T, R any](
	items []T,
	limit int,
	fn func(item T, cb func(error, R)),
	done func(err error, results []R),
	opts ...Option,
) {
	if done == nil {
		panic(&ConfigError{Op: "each", Reason: "done must not be nil"})
	}
	if limit < 1 {
		limit = 1
	}
	r := newRunner("each", nil, opts)
	r.started(len(items))

	var (
		mu         sync.Mutex
		dispatched int
		inFlight   int
		completed  int
		failed     bool
		results    = make([]R, 0, len(items))
	)

	if len(items) == 0 {
		r.sched.Schedule(func() {
			r.finished(nil)
			done(nil, results)
		})
		return
	}

	// fill must be called with mu held.
	var fill func()
	fill = func() {
		for dispatched < len(items) && inFlight < limit {
			i := dispatched
			item := items[i]
			dispatched++
			inFlight++
			invoke(r, i, func(cb func(error, R)) {
				if fn == nil {
					var zero R
					cb(ErrNilStep, zero)
					return
				}
				fn(item, cb)
			}, func(err error, result R) {
				mu.Lock()
				if failed {
					mu.Unlock()
					r.log.Debug("discarding late completion", "index", i, "error", err)
					return
				}
				if err != nil {
					failed = true
					partial := slices.Clone(results)
					mu.Unlock()
					err = &IndexedError{Index: i, Err: err}
					r.finished(err)
					done(err, partial)
					return
				}
				results = append(results, result)
				inFlight--
				completed++
				if completed == len(items) {
					mu.Unlock()
					r.finished(nil)
					done(nil, results)
					return
				}
				fill()
				mu.Unlock()
			})
		}
	}

	mu.Lock()
	fill()
	mu.Unlock()
}

// N calls fn with each index from 0 to count-1, one call at a time, and
// collects the results in index order.
//
// The first error stops the sequence; done receives it wrapped in an
// *[IndexedError], together with the results collected so far. Match it
// with [errors.Is] or [errors.As] rather than ==.
//
// Example:
//
//	flw.N(3, func(i int, cb func(error, string)) {
//	    cb(nil, fmt.Sprintf("shard-%d", i))
//	}, func(err error, names []string) {
//	    // names == ["shard-0", "shard-1", "shard-2"]
//	})
//
// N panics with a *[ConfigError] if done is nil.
func N[R any](
	count int,
	fn func(i int, cb func(error, R)),
	done func(err error, results []R),
	opts ...Option,
) {
	if done == nil {
		panic(&ConfigError{Op: "n", Reason: "done must not be nil"})
	}
	sequence("n", count, fn, done, opts)
}

// Times calls fn count times, one call at a time, and collects the
// results. It behaves like [N] without passing the index, including the
// *[IndexedError] wrapping of the first error.
//
// Times panics with a *[ConfigError] if done is nil.
func Times[R any](
	count int,
	fn func(cb func(error, R)),
	done func(err error, results []R),
	opts ...Option,
) {
	if done == nil {
		panic(&ConfigError{Op: "times", Reason: "done must not be nil"})
	}
	var indexed func(int, func(error, R))
	if fn != nil {
		indexed = func(_ int, cb func(error, R)) { fn(cb) }
	}
	sequence("times", count, indexed, done, opts)
}

func sequence[R any](
	name string,
	count int,
	fn func(int, func(error, R)),
	done func(error, []R),
	opts []Option,
) {
	r := newRunner(name, nil, opts)
	r.started(count)
	results := make([]R, 0, max(count, 0))

	var next func(i int)
	next = func(i int) {
		if i >= count {
			r.finished(nil)
			done(nil, results)
			return
		}
		invoke(r, i, func(cb func(error, R)) {
			if fn == nil {
				var zero R
				cb(ErrNilStep, zero)
				return
			}
			fn(i, cb)
		}, func(err error, result R) {
			if err != nil {
				err = &IndexedError{Index: i, Err: err}
				r.finished(err)
				done(err, results)
				return
			}
			results = append(results, result)
			next(i + 1)
		})
	}
	r.sched.Schedule(func() { next(0) })
}
