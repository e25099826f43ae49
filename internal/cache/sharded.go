// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache holds the sharded LRU the reference engine uses for decoded
// image resources. Raster workers hit it concurrently, so each shard carries
// its own lock.
package cache

import (
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is a power of two so shard selection is a mask.
	ShardCount = 16
	shardMask  = ShardCount - 1

	// DefaultCapacity is the per-shard entry limit used when none is given.
	DefaultCapacity = 64
)

// Hasher maps a key to the value used for shard selection.
type Hasher[K any] func(K) uint64

// Sharded is a concurrent LRU cache. Every entry carries a cost (bytes for
// decoded images) so the owner can report memory use.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int

	cost      atomic.Int64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	// head is most recently used, tail least.
	head, tail *node[K, V]
}

type node[K comparable, V any] struct {
	key        K
	value      V
	cost       int64
	prev, next *node[K, V]
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Cost      int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewSharded returns a cache holding up to capacity entries per shard.
// A non-positive capacity selects DefaultCapacity.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*node[K, V])}
	}
	return c
}

func (c *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the cached value for key and marks it most recently used.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	c.hits.Add(1)
	return n.value, true
}

// GetOrCreate returns the cached value or builds it with create while holding
// the shard lock, so concurrent workers decode a resource once. A create
// error is returned and nothing is cached.
func (c *Sharded[K, V]) GetOrCreate(key K, create func() (V, int64, error)) (V, error) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		s.moveToFront(n)
		c.hits.Add(1)
		return n.value, nil
	}
	c.misses.Add(1)

	value, cost, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.insertLocked(s, key, value, cost)
	return value, nil
}

// Set stores value under key, replacing any previous entry.
func (c *Sharded[K, V]) Set(key K, value V, cost int64) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.entries[key]; ok {
		c.cost.Add(cost - n.cost)
		n.value, n.cost = value, cost
		s.moveToFront(n)
		return
	}
	c.insertLocked(s, key, value, cost)
}

func (c *Sharded[K, V]) insertLocked(s *shard[K, V], key K, value V, cost int64) {
	for len(s.entries) >= c.capacity && s.tail != nil {
		old := s.tail
		s.unlink(old)
		delete(s.entries, old.key)
		c.cost.Add(-old.cost)
		c.evictions.Add(1)
	}
	n := &node[K, V]{key: key, value: value, cost: cost}
	s.pushFront(n)
	s.entries[key] = n
	c.cost.Add(cost)
}

// Delete removes key and reports whether it was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[key]
	if !ok {
		return false
	}
	s.unlink(n)
	delete(s.entries, key)
	c.cost.Add(-n.cost)
	return true
}

// DeleteFunc removes every entry whose key matches pred.
func (c *Sharded[K, V]) DeleteFunc(pred func(K) bool) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for k, n := range s.entries {
			if pred(k) {
				s.unlink(n)
				delete(s.entries, k)
				c.cost.Add(-n.cost)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats returns the current counters.
func (c *Sharded[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Cost:      c.cost.Load(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (s *shard[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

func (s *shard[K, V]) moveToFront(n *node[K, V]) {
	if s.head == n {
		return
	}
	s.unlink(n)
	s.pushFront(n)
}

func (s *shard[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
