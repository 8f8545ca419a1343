package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string](4, time.Minute)

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	c := New[string](4, time.Minute)

	c.Set("a", "first")
	c.Set("a", "second")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestCacheLRUEviction(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // touch a so b is the eviction candidate
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCacheTTL(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheDelete(t *testing.T) {
	c := New[int](4, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	c.Delete("nope")
}

func TestCacheDeletePrefix(t *testing.T) {
	c := New[int](8, time.Minute)

	c.Set("7|2024|1", 1)
	c.Set("7|2024|2", 2)
	c.Set("7|2023|2", 3)
	c.Set("8|2024|2", 4)

	c.DeletePrefix("7|2024|")

	_, ok := c.Get("7|2024|1")
	assert.False(t, ok)
	_, ok = c.Get("7|2024|2")
	assert.False(t, ok)
	_, ok = c.Get("7|2023|2")
	assert.True(t, ok)
	_, ok = c.Get("8|2024|2")
	assert.True(t, ok)
}

func TestCacheCleanExpired(t *testing.T) {
	c := New[int](8, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3) // fresh

	// CleanExpired only drops the stale entries.
	assert.Equal(t, 2, c.CleanExpired())
	_, ok := c.Get("c")
	assert.True(t, ok)
}
