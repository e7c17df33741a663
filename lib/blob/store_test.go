// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLocationFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		location := NewLocation()
		if len(location) != 32 {
			t.Fatalf("location %q has length %d, want 32", location, len(location))
		}
		for _, c := range location {
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				t.Fatalf("location %q contains non-hex character %q", location, c)
			}
		}
		if seen[location] {
			t.Fatalf("location %q minted twice", location)
		}
		seen[location] = true
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	location := NewLocation()
	data := []byte("artifact bytes")

	if store.Exists(location) {
		t.Error("artifact should not exist before write")
	}
	if err := store.Write(location, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !store.Exists(location) {
		t.Error("artifact should exist after write")
	}

	read, err := store.Read(location)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(read, data) {
		t.Error("read did not return the written bytes")
	}

	if err := store.Remove(location); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Exists(location) {
		t.Error("artifact should not exist after remove")
	}

	// Removing again is not an error.
	if err := store.Remove(location); err != nil {
		t.Errorf("Remove of missing artifact failed: %v", err)
	}
}

func TestFSStoreReadMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	_, err = store.Read(NewLocation())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read of missing artifact returned %v, want ErrNotFound", err)
	}
}

func TestFSStoreSharding(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	location := "aabbccddeeff00112233445566778899"
	if err := store.Write(location, []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	sharded := filepath.Join(root, "aa", "bb", location)
	if _, err := os.Stat(sharded); err != nil {
		t.Errorf("artifact not at sharded path %s: %v", sharded, err)
	}
}

func TestFSStoreRejectsBadLocations(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	for _, location := range []string{"", "ab", "../../etc/passwd", "AABBCCDD11223344", "zzzz5566"} {
		t.Run(location, func(t *testing.T) {
			if err := store.Write(location, []byte("x")); err == nil {
				t.Errorf("Write(%q) should fail", location)
			}
			if _, err := store.Read(location); err == nil {
				t.Errorf("Read(%q) should fail", location)
			}
		})
	}
}

func TestFSStoreOverwrite(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	location := NewLocation()
	if err := store.Write(location, []byte("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write(location, []byte("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	read, err := store.Read(location)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(read) != "second" {
		t.Errorf("read %q after overwrite, want %q", read, "second")
	}
}
