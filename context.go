// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultStopReason is recorded by [Context.Stop] when no reason is given.
const DefaultStopReason = "stopped"

// Reserved key names. [Context.Clean] never returns these, even if a
// step stored data under one of them.
const (
	KeyStore    = "_store"
	KeyStop     = "_stop"
	KeyStopped  = "_stopped"
	KeyClean    = "_clean"
	KeyFlwStore = "_flw_store"
)

var reservedKeys = []string{KeyStore, KeyStop, KeyStopped, KeyClean, KeyFlwStore}

// Context is the shared, mutable state that flows through one flow
// invocation.
//
// A Context is two things: a public data mapping from string keys to
// arbitrary values, and a private control block holding the cooperative
// stop flag and the run id. Steps talk to each other through the data
// mapping and talk to the engine through [Context.Stop] and
// [Context.Store].
//
// Individual map operations are safe for concurrent use, but the engine
// never arbitrates between steps: parallel steps that write the same key
// race with each other, and avoiding that is up to the caller.
//
// The zero value is an empty, not yet enriched Context.
type Context struct {
	once    sync.Once
	id      uuid.UUID
	stopped atomic.Pointer[string]

	mu   sync.RWMutex
	data map[string]any
}

// NewContext returns a Context holding data. The map is used directly,
// not copied; a nil map starts an empty Context.
func NewContext(data map[string]any) *Context {
	return &Context{data: data}
}

// Enrich prepares c for use by a flow and returns it. A nil c yields a
// fresh, empty Context.
//
// Enrichment happens once per Context: handing an already-enriched
// Context to another flow keeps its run id, data and stop flag as they
// are. Every flow entry point calls Enrich before any step sees c.
func Enrich(c *Context) *Context {
	if c == nil {
		c = &Context{}
	}
	c.once.Do(c.init)
	return c
}

func (c *Context) init() {
	c.id = uuid.New()
	c.mu.Lock()
	if c.data == nil {
		c.data = make(map[string]any)
	}
	c.mu.Unlock()
}

// ID returns the run id assigned when c was enriched.
func (c *Context) ID() uuid.UUID {
	Enrich(c)
	return c.id
}

// Stop requests a cooperative stop and then calls cb(nil, nil).
//
// An empty reason is recorded as [DefaultStopReason]. A [Series] checks
// the flag before launching each step and completes successfully,
// without running the remaining steps, once it is set. Steps that are
// already running, including every branch of a [Parallel], are not
// interrupted.
//
// Example:
//
//	func CheckCache(c *flw.Context, cb flw.Callback) {
//	    if _, ok := c.Get("cached"); ok {
//	        c.Stop("cache hit", cb)
//	        return
//	    }
//	    cb(nil, nil)
//	}
func (c *Context) Stop(reason string, cb Callback) {
	c.markStopped(reason)
	cb(nil, nil)
}

func (c *Context) markStopped(reason string) {
	Enrich(c)
	if reason == "" {
		reason = DefaultStopReason
	}
	c.stopped.Store(&reason)
}

// Stopped reports whether a stop was requested, and why.
func (c *Context) Stopped() (reason string, ok bool) {
	if r := c.stopped.Load(); r != nil {
		return *r, true
	}
	return "", false
}

// Store returns a [Callback] that records a successful result under key
// and then calls cb(nil, nil). An error is forwarded to cb unchanged and
// nothing is stored.
//
// This is the usual way to run a callback-style function and remember
// its result for later steps.
//
// Example:
//
//	func LoadUser(c *flw.Context, cb flw.Callback) {
//	    users.Find(c.Get("user_id"), c.Store("user", cb))
//	}
func (c *Context) Store(key string, cb Callback) Callback {
	return func(err error, result any) {
		if err != nil {
			cb(err, nil)
			return
		}
		c.Set(key, result)
		cb(nil, nil)
	}
}

// FlwStore is an alias of [Context.Store].
//
// Deprecated: use [Context.Store].
func (c *Context) FlwStore(key string, cb Callback) Callback {
	return c.Store(key, cb)
}

// Clean returns a shallow copy of the data, without any reserved keys.
// Use it to hand the results of a flow to code that should not see
// engine bookkeeping.
func (c *Context) Clean() map[string]any {
	Enrich(c)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		if slices.Contains(reservedKeys, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	Enrich(c)
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value under key.
func (c *Context) Set(key string, value any) {
	Enrich(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Delete removes key.
func (c *Context) Delete(key string) {
	Enrich(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Keys returns the stored keys in sorted order.
func (c *Context) Keys() []string {
	Enrich(c)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.data))
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	Enrich(c)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Lookup returns the value stored under key if it has type V.
//
// Example:
//
//	user, ok := flw.Lookup[*User](c, "user")
func Lookup[V any](c *Context, key string) (V, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	return typed, ok
}
