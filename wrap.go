// SPDX-License-Identifier: Apache-2.0

package flw

// Wrap adapts a callback-style function into a [Step].
//
// When key is not empty, a successful result is stored in the Context
// under key. Errors are forwarded unchanged. The result itself is never
// passed on to the step's callback.
//
// Example:
//
//	flw.Series([]flw.Step{
//	    flw.Wrap(loadConfig, "config"),
//	    flw.Wrap1(openDB, "primary", "db"),
//	}, nil, done)
func Wrap[R any](fn func(cb func(error, R)), key string) Step {
	return func(c *Context, cb Callback) {
		if fn == nil {
			cb(ErrNilStep, nil)
			return
		}
		fn(func(err error, result R) {
			if err != nil {
				cb(err, nil)
				return
			}
			if key != "" {
				c.Set(key, result)
			}
			cb(nil, nil)
		})
	}
}

// Wrap1 is [Wrap] for a function taking one bound argument.
func Wrap1[A, R any](fn func(A, func(error, R)), a A, key string) Step {
	if fn == nil {
		return Wrap[R](nil, key)
	}
	return Wrap(func(cb func(error, R)) { fn(a, cb) }, key)
}

// Wrap2 is [Wrap] for a function taking two bound arguments.
func Wrap2[A, B, R any](fn func(A, B, func(error, R)), a A, b B, key string) Step {
	if fn == nil {
		return Wrap[R](nil, key)
	}
	return Wrap(func(cb func(error, R)) { fn(a, b, cb) }, key)
}
