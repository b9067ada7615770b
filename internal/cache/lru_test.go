package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ current time.Time }

func (c *clock) now() time.Time { return c.current }

func newTestLRU(maxSize int, ttl time.Duration) (*LRU[int], *clock) {
	c := &clock{current: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	lru := NewLRU[int](maxSize, ttl)
	lru.now = c.now
	return lru, c
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	lru, _ := newTestLRU(2, time.Minute)

	lru.Set("a", 1)
	lru.Set("b", 2)
	_, _ = lru.Get("a")
	lru.Set("c", 3)

	_, found := lru.Get("b")
	assert.False(t, found)
	value, found := lru.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, value)
	assert.Equal(t, 2, lru.Len())
}

func TestLRU_Expiry(t *testing.T) {
	lru, c := newTestLRU(10, time.Minute)

	lru.Set("a", 1)
	lru.Set("b", 2)
	c.current = c.current.Add(30 * time.Second)
	lru.Set("b", 3)
	c.current = c.current.Add(31 * time.Second)

	_, found := lru.Get("a")
	assert.False(t, found)
	assert.Equal(t, 0, lru.CleanExpired())

	value, found := lru.Get("b")
	assert.True(t, found)
	assert.Equal(t, 3, value)

	c.current = c.current.Add(time.Minute)
	assert.Equal(t, 1, lru.CleanExpired())
	assert.Equal(t, 0, lru.Len())
}

func TestLRU_DeletePrefix(t *testing.T) {
	lru, _ := newTestLRU(10, time.Minute)

	lru.Set("house-1|2024-03", 1)
	lru.Set("house-1|2024-04", 2)
	lru.Set("house-2|2024-03", 3)

	assert.Equal(t, 2, lru.DeletePrefix("house-1|"))
	_, found := lru.Get("house-2|2024-03")
	assert.True(t, found)

	lru.Delete("house-2|2024-03")
	assert.Equal(t, 0, lru.Len())
}

func TestNewLRU_MinimumSize(t *testing.T) {
	lru, _ := newTestLRU(0, time.Minute)
	lru.Set("a", 1)
	lru.Set("b", 2)
	assert.Equal(t, 1, lru.Len())
}
