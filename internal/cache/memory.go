package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-process ReportCache: LRU eviction by size plus TTL
// expiry checked on read.
type Memory[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type memoryEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// NewMemory creates an in-process cache holding at most maxSize entries,
// each valid for ttl.
func NewMemory[T any](maxSize int, ttl time.Duration) *Memory[T] {
	return &Memory[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false, nil
	}
	entry := elem.Value.(*memoryEntry[T])
	if time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return zero, false, nil
	}
	c.order.MoveToFront(elem)
	return entry.value, true, nil
}

func (c *Memory[T]) Set(_ context.Context, key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &memoryEntry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return nil
	}

	c.entries[key] = c.order.PushFront(entry)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
// Intended to be called periodically; reads already drop expired entries
// lazily, so sweeping only bounds memory held by cold keys.
func (c *Memory[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*memoryEntry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Len returns the current number of entries.
func (c *Memory[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Memory[T]) remove(elem *list.Element) {
	entry := elem.Value.(*memoryEntry[T])
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
