// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"fmt"
	"testing"
)

func TestCacheGetPut(t *testing.T) {
	cache := NewCache(1024)

	if _, found := cache.Get("aa"); found {
		t.Error("empty cache should miss")
	}

	data := []byte("decoded chunk")
	cache.Put("aa", data)

	got, found := cache.Get("aa")
	if !found {
		t.Fatal("cache should hit after put")
	}
	if !bytes.Equal(got, data) {
		t.Error("cache returned different bytes")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
	if cache.Used() != int64(len(data)) {
		t.Errorf("Used() = %d, want %d", cache.Used(), len(data))
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	// Room for exactly three 100-byte entries.
	cache := NewCache(300)
	payload := func(i int) []byte {
		return bytes.Repeat([]byte{byte(i)}, 100)
	}

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("loc%d", i), payload(i))
	}

	// Touch loc0 so loc1 becomes the eviction candidate.
	if _, found := cache.Get("loc0"); !found {
		t.Fatal("loc0 should be cached")
	}

	cache.Put("loc3", payload(3))

	if _, found := cache.Get("loc1"); found {
		t.Error("least recently used entry should have been evicted")
	}
	for _, location := range []string{"loc0", "loc2", "loc3"} {
		if _, found := cache.Get(location); !found {
			t.Errorf("%s should still be cached", location)
		}
	}
	if cache.Used() != 300 {
		t.Errorf("Used() = %d, want 300", cache.Used())
	}
}

func TestCacheSkipsOversizeEntry(t *testing.T) {
	cache := NewCache(10)
	cache.Put("big", make([]byte, 11))

	if _, found := cache.Get("big"); found {
		t.Error("entry larger than capacity should not be cached")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestCacheReplaceAdjustsUsed(t *testing.T) {
	cache := NewCache(1000)
	cache.Put("loc", make([]byte, 100))
	cache.Put("loc", make([]byte, 40))

	if cache.Used() != 40 {
		t.Errorf("Used() = %d after replacement, want 40", cache.Used())
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheDrop(t *testing.T) {
	cache := NewCache(1000)
	cache.Put("keep", make([]byte, 10))
	cache.Put("drop", make([]byte, 20))

	cache.Drop("drop")
	cache.Drop("never-existed")

	if _, found := cache.Get("drop"); found {
		t.Error("dropped entry should miss")
	}
	if _, found := cache.Get("keep"); !found {
		t.Error("unrelated entry disappeared")
	}
	if cache.Used() != 10 {
		t.Errorf("Used() = %d, want 10", cache.Used())
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(1000)
	for i := 0; i < 5; i++ {
		cache.Put(fmt.Sprintf("loc%d", i), make([]byte, 10))
	}

	cache.Clear()

	if cache.Len() != 0 || cache.Used() != 0 {
		t.Errorf("after Clear: Len() = %d, Used() = %d, want 0, 0", cache.Len(), cache.Used())
	}
	if _, found := cache.Get("loc0"); found {
		t.Error("cleared cache should miss")
	}
}
