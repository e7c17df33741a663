// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"container/list"
	"sync"
)

// Cache memoizes decoded (post decrypt+decompress) chunk plaintext,
// keyed by artifact location, so repeated reconstructions of the same
// file skip the transform work. Eviction is least-recently-used,
// bounded by total cached bytes rather than entry count — chunk sizes
// vary by orders of magnitude, so a count bound would be meaningless.
//
// The cache is safe for concurrent use. Readers of the same artifact
// may race to populate the same entry; the duplicate decode work is
// benign and the map write itself is serialized, so the cache never
// holds torn data. No locking spans the decode computation — only the
// map operations themselves.
type Cache struct {
	mu         sync.Mutex
	capacity   int64
	used       int64
	entries    map[string]*list.Element
	recentness *list.List
}

type cacheEntry struct {
	location string
	data     []byte
}

// NewCache creates a decode cache bounded to capacity total bytes.
// A single chunk larger than the capacity is simply never cached.
func NewCache(capacity int64) *Cache {
	return &Cache{
		capacity:   capacity,
		entries:    make(map[string]*list.Element),
		recentness: list.New(),
	}
}

// Get returns the cached plaintext for a location, marking the entry
// recently used. The returned slice is shared — callers must treat it
// as read-only.
func (c *Cache) Get(location string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.entries[location]
	if !found {
		return nil, false
	}
	c.recentness.MoveToFront(element)
	return element.Value.(*cacheEntry).data, true
}

// Put stores decoded plaintext for a location, evicting
// least-recently-used entries until the total fits the capacity.
// Racing puts for the same location are last-write-wins; both writers
// hold equivalent plaintext, so the outcome is identical either way.
func (c *Cache) Put(location string, data []byte) {
	size := int64(len(data))
	if size > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.entries[location]; found {
		entry := element.Value.(*cacheEntry)
		c.used += size - int64(len(entry.data))
		entry.data = data
		c.recentness.MoveToFront(element)
	} else {
		element := c.recentness.PushFront(&cacheEntry{location: location, data: data})
		c.entries[location] = element
		c.used += size
	}

	for c.used > c.capacity {
		oldest := c.recentness.Back()
		if oldest == nil {
			break
		}
		entry := oldest.Value.(*cacheEntry)
		c.recentness.Remove(oldest)
		delete(c.entries, entry.location)
		c.used -= int64(len(entry.data))
	}
}

// Drop removes a single location's entry, if cached. Used when the
// underlying artifact is deleted.
func (c *Cache) Drop(location string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.entries[location]
	if !found {
		return
	}
	entry := element.Value.(*cacheEntry)
	c.recentness.Remove(element)
	delete(c.entries, location)
	c.used -= int64(len(entry.data))
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.recentness.Init()
	c.used = 0
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Used returns the total cached bytes.
func (c *Cache) Used() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.used
}
