package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := newTTLCache[int](time.Hour)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 42)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := newTTLCache[int](10 * time.Millisecond)
	c.Set("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheZeroMeansForever(t *testing.T) {
	c := newTTLCache[int](0)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTLCachePurge(t *testing.T) {
	c := newTTLCache[int](time.Hour)
	c.Set("a", 1)
	c.Purge()

	_, ok := c.Get("a")
	assert.False(t, ok)
}
