// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrNilStep is reported when a flow or iterator is asked to run a nil
// [Step] or item function.
var ErrNilStep = errors.New("nil step")

// ErrSchedulerClosed is returned by [Pool.TrySchedule] once the pool has
// been closed.
var ErrSchedulerClosed = errors.New("scheduler closed")

// IndexedError wraps an error with the index of the step or item that
// produced it.
//
// The bounded iterators ([Each], [EachLimit], [N], [Times]) wrap every
// item error in an IndexedError. [Series] and [Parallel] only use it for
// nil steps; step errors are reported to their Done callback unchanged.
//
// Example:
//
//	flw.Each(urls, fetch, func(err error, pages []Page) {
//	    var ie *flw.IndexedError
//	    if errors.As(err, &ie) {
//	        log.Printf("item %d failed: %v", ie.Index, ie.Err)
//	    }
//	})
type IndexedError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *IndexedError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error for inspection via errors.Is and errors.As.
func (e *IndexedError) Unwrap() error {
	return e.Err
}

// ConfigError signals programmer misuse, such as a nil completion
// callback. It is raised with panic at the call site rather than being
// delivered through a callback, since there is nothing to deliver it to.
type ConfigError struct {
	// Op is the operation that was misused, e.g. "series" or "make.parallel".
	Op string
	// Reason describes the misuse.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("flw: %s: %s", e.Op, e.Reason)
}

const captureDepth = 32

// RecoveredPanic is an error type that wraps a panic raised by a step.
//
// Steps run on a [Scheduler], so a panic must not unwind into whatever
// goroutine happens to be draining the queue. The engine recovers it and
// reports a RecoveredPanic through the step's callback instead.
type RecoveredPanic struct {
	// Value is the value passed to panic.
	Value any
	// Stack holds the program counters at the point of recovery.
	Stack []uintptr
}

func (p *RecoveredPanic) Error() string {
	return fmt.Sprintf("panic recovered: %v", p.Value)
}

// Unwrap returns the panic value if it is an error.
func (p *RecoveredPanic) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// StackTrace formats the captured stack for debugging.
func (p *RecoveredPanic) StackTrace() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(p.Stack)
	for {
		frame, more := frames.Next()
		_, _ = fmt.Fprintf(&sb, "%s ( %s:%d )\n", frame.Function, frame.File, frame.Line)
		if !more {
			return sb.String()
		}
	}
}

// safeCall executes fn. If fn panics, the panic is returned as a
// *RecoveredPanic.
func safeCall(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := make([]uintptr, captureDepth)
		stack = stack[:runtime.Callers(2, stack)]
		err = &RecoveredPanic{Value: r, Stack: stack}
	}()
	fn()
	return nil
}

// IgnoreError wraps a step so that it always reports success, even if
// the step fails.
//
// This is useful for "best effort" operations where failures should not
// stop the overall flow.
func IgnoreError(step Step) Step {
	return func(c *Context, cb Callback) {
		step(c, func(_ error, result any) {
			cb(nil, result)
		})
	}
}
