// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"fmt"
	"runtime"
	"strings"
)

// NamedError is an error returned by steps wrapped with [Named] or
// [AutoNamed]. Use [errors.As] to detect and inspect it.
type NamedError struct {
	// Name is the name of the step that failed.
	Name string
	// Err is the underlying error from the step.
	Err error
}

// Error returns the formatted error message.
func (e *NamedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *NamedError) Unwrap() error {
	return e.Err
}

// Named wraps a [Step] with a name.
//
// The name is prepended to any error the step reports, separated by a
// colon. For example, if the step fails with "invalid config", the flow
// sees "load: invalid config".
//
// This is useful for debugging and logging.
func Named(name string, step Step) Step {
	return func(c *Context, cb Callback) {
		step(c, func(err error, result any) {
			if err != nil {
				cb(&NamedError{Name: name, Err: err}, result)
				return
			}
			cb(nil, result)
		})
	}
}

type autoNamedOptions struct {
	callerSkip int
}

// An AutoNamedOption is a function option for [AutoNamed].
type AutoNamedOption func(*autoNamedOptions)

// SkipCaller adds a delta to the number of skipped stack frames.
//
// This is useful when AutoNamed is called from a helper, allowing it to
// skip the helper and name the step after the helper's caller.
func SkipCaller(delta int) AutoNamedOption {
	return func(o *autoNamedOptions) {
		o.callerSkip += delta
	}
}

// AutoNamed wraps a [Step] with a name derived from the calling function.
//
// Example:
//
//	func CreateDatabase() flw.Step {
//	    return flw.AutoNamed(func(c *flw.Context, cb flw.Callback) {
//	        // ...
//	    })
//	}
//	// If this step fails, the error will be prefixed with "CreateDatabase: ..."
//
// AutoNamed only works when called directly from a named function; from
// a closure it picks up the compiler-generated name.
func AutoNamed(step Step, opts ...AutoNamedOption) Step {
	const minimumCallerSkip = 1
	config := autoNamedOptions{callerSkip: minimumCallerSkip}
	for _, opt := range opts {
		opt(&config)
	}

	pc, _, _, ok := runtime.Caller(config.callerSkip)
	if !ok {
		return step
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return step
	}
	return Named(extractFunctionName(fn.Name()), step)
}

// extractFunctionName extracts the simple function name from a full Go function path.
//
// Examples:
//   - "github.com/sam-fredrickson/flw.CreateDatabase" -> "CreateDatabase"
//   - "main.(*Server).HandleRequest" -> "HandleRequest"
//   - "github.com/user/pkg.init.0" -> "0"
func extractFunctionName(fullName string) string {
	parts := strings.Split(fullName, "/")
	lastPart := parts[len(parts)-1]
	if idx := strings.LastIndex(lastPart, "."); idx != -1 {
		lastPart = lastPart[idx+1:]
	}
	return lastPart
}
