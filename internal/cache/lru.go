// Package cache keeps recently materialized views in memory.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRU is a size-bounded cache whose entries also expire after a TTL.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// NewLRU returns a cache holding at most maxSize entries, each for ttl.
// A maxSize below one is treated as one.
func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: max(maxSize, 1),
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (lru *LRU[T]) Get(key string) (T, bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	var zero T
	element, found := lru.items[key]
	if !found {
		return zero, false
	}

	item := element.Value.(*entry[T])
	if lru.now().After(item.expiresAt) {
		lru.remove(element)
		return zero, false
	}

	lru.order.MoveToFront(element)
	return item.value, true
}

func (lru *LRU[T]) Set(key string, value T) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	item := &entry[T]{key: key, value: value, expiresAt: lru.now().Add(lru.ttl)}
	if element, found := lru.items[key]; found {
		element.Value = item
		lru.order.MoveToFront(element)
		return
	}

	lru.items[key] = lru.order.PushFront(item)
	if lru.order.Len() > lru.maxSize {
		lru.remove(lru.order.Back())
	}
}

func (lru *LRU[T]) Delete(key string) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if element, found := lru.items[key]; found {
		lru.remove(element)
	}
}

// DeletePrefix drops every key starting with prefix and reports how many.
func (lru *LRU[T]) DeletePrefix(prefix string) int {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	removed := 0
	for key, element := range lru.items {
		if strings.HasPrefix(key, prefix) {
			lru.remove(element)
			removed++
		}
	}
	return removed
}

// CleanExpired drops expired entries and reports how many.
func (lru *LRU[T]) CleanExpired() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	now := lru.now()
	var expired []*list.Element
	for element := lru.order.Front(); element != nil; element = element.Next() {
		if now.After(element.Value.(*entry[T]).expiresAt) {
			expired = append(expired, element)
		}
	}
	for _, element := range expired {
		lru.remove(element)
	}
	return len(expired)
}

func (lru *LRU[T]) Len() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return len(lru.items)
}

func (lru *LRU[T]) remove(element *list.Element) {
	delete(lru.items, element.Value.(*entry[T]).key)
	lru.order.Remove(element)
}
