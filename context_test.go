// SPDX-License-Identifier: Apache-2.0

package flw

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEnrich(t *testing.T) {
	t.Parallel()

	t.Run("NilStartsEmpty", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		c := Enrich(nil)
		r.NotNil(c)
		r.Zero(c.Len())
		r.NotEqual(uuid.Nil, c.ID())
		_, stopped := c.Stopped()
		r.False(stopped)
	})

	t.Run("KeepsCallerData", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		data := map[string]any{"a": 1}
		c := Enrich(NewContext(data))
		v, ok := c.Get("a")
		r.True(ok)
		r.Equal(1, v)
	})

	t.Run("Idempotent", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		c := Enrich(nil)
		id := c.ID()
		c.Set("k", "v")
		c.Stop("why", func(error, any) {})

		again := Enrich(c)
		r.Same(c, again)
		r.Equal(id, again.ID())
		reason, ok := again.Stopped()
		r.True(ok)
		r.Equal("why", reason)
		r.Equal(map[string]any{"k": "v"}, again.Clean())
	})

	t.Run("ZeroValueIsUsable", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		var c Context
		c.Set("k", 1)
		r.Equal([]string{"k"}, c.Keys())
		r.NotEqual(uuid.Nil, c.ID())
	})
}

func TestContextStop(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		reason   string
		expected string
	}{
		{name: "WithReason", reason: "cache hit", expected: "cache hit"},
		{name: "DefaultReason", reason: "", expected: DefaultStopReason},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := require.New(t)
			c := Enrich(nil)
			called := false
			c.Stop(tc.reason, func(err error, result any) {
				r.NoError(err)
				r.Nil(result)
				called = true
			})
			r.True(called, "stop must call back synchronously")
			reason, ok := c.Stopped()
			r.True(ok)
			r.Equal(tc.expected, reason)
		})
	}
}

func TestContextStore(t *testing.T) {
	t.Parallel()

	t.Run("StoresResult", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		c := Enrich(nil)
		var gotErr error
		var gotResult any = "unset"
		c.Store("answer", func(err error, result any) {
			gotErr, gotResult = err, result
		})(nil, 42)
		r.NoError(gotErr)
		r.Nil(gotResult)
		v, ok := Lookup[int](c, "answer")
		r.True(ok)
		r.Equal(42, v)
	})

	t.Run("ForwardsError", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		c := Enrich(nil)
		var gotErr error
		c.Store("answer", func(err error, _ any) {
			gotErr = err
		})(error1, 42)
		r.Same(error1, gotErr)
		_, ok := c.Get("answer")
		r.False(ok)
	})

	t.Run("DeprecatedAlias", func(t *testing.T) {
		t.Parallel()
		r := require.New(t)
		c := Enrich(nil)
		c.FlwStore("x", func(error, any) {})(nil, "y")
		v, _ := c.Get("x")
		r.Equal("y", v)
	})
}

func TestContextClean(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	c := NewContext(map[string]any{
		"user":      "ada",
		"count":     3,
		KeyStopped:  "leftover",
		KeyFlwStore: "leftover",
		KeyStore:    "leftover",
		KeyStop:     "leftover",
		KeyClean:    "leftover",
	})
	c.Stop("", func(error, any) {})

	clean := c.Clean()
	r.Equal(map[string]any{"user": "ada", "count": 3}, clean)

	// The copy is detached from the context.
	clean["user"] = "grace"
	v, _ := c.Get("user")
	r.Equal("ada", v)
}

func TestContextData(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	c := NewContext(nil)

	c.Set("b", 2)
	c.Set("a", "one")
	r.Equal([]string{"a", "b"}, c.Keys())
	r.Equal(2, c.Len())

	_, ok := Lookup[int](c, "a")
	r.False(ok, "wrong type")
	_, ok = Lookup[int](c, "missing")
	r.False(ok)
	s, ok := Lookup[string](c, "a")
	r.True(ok)
	r.Equal("one", s)

	c.Delete("a")
	r.Equal([]string{"b"}, c.Keys())
}
