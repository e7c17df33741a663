// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"sort"
	"testing"
)

func TestStoreSaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	original := validChunked()
	if err := store.Save(original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(original.OriginalName)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OriginalName != original.OriginalName {
		t.Errorf("loaded name %q, want %q", loaded.OriginalName, original.OriginalName)
	}
	if len(loaded.Chunks) != len(original.Chunks) {
		t.Errorf("loaded %d chunks, want %d", len(loaded.Chunks), len(original.Chunks))
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	_, err = store.Load("no-such-file")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load of missing manifest returned %v, want ErrNotFound", err)
	}
}

func TestStoreRefusesInvalidManifest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	m := validChunked()
	m.Chunks[0].Index = 3
	if err := store.Save(m); err == nil {
		t.Error("Save of inconsistent manifest should fail")
	}
	if store.Exists(m.OriginalName) {
		t.Error("nothing should be persisted for a rejected manifest")
	}
}

func TestStoreReplace(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	first := validSingle()
	if err := store.Save(first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := validSingle()
	second.OriginalSize = 8192
	second.Single.CiphertextSize = 8400
	if err := store.Save(second); err != nil {
		t.Fatalf("replacing Save failed: %v", err)
	}

	loaded, err := store.Load(first.OriginalName)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OriginalSize != 8192 {
		t.Errorf("loaded size %d, want the replacement's 8192", loaded.OriginalSize)
	}
}

func TestStoreListAndRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// Names with path separators and spaces must survive the trip
	// through the escaped filename.
	names := []string{"plain.bin", "dir/nested file.tar", "weird%name"}
	for _, name := range names {
		m := validSingle()
		m.OriginalName = name
		if err := store.Save(m); err != nil {
			t.Fatalf("Save(%q) failed: %v", name, err)
		}
	}

	listed, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(listed)
	want := append([]string(nil), names...)
	sort.Strings(want)
	if len(listed) != len(want) {
		t.Fatalf("listed %d names, want %d", len(listed), len(want))
	}
	for i := range want {
		if listed[i] != want[i] {
			t.Errorf("listed[%d] = %q, want %q", i, listed[i], want[i])
		}
	}

	if err := store.Remove(names[0]); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Exists(names[0]) {
		t.Error("manifest should not exist after remove")
	}
	if !store.Exists(names[1]) {
		t.Error("unrelated manifest disappeared")
	}

	// Removing a missing manifest is not an error.
	if err := store.Remove(names[0]); err != nil {
		t.Errorf("Remove of missing manifest failed: %v", err)
	}
}
