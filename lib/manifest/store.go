// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store persists manifests as JSON files in a directory, one file per
// logical source name. Writes are atomic (temp file + rename in the
// same directory), so a reader never observes a partially written
// manifest. The write path calls Save only after every artifact is
// durable, which preserves the artifacts-before-manifest ordering
// guarantee.
type Store struct {
	root string
}

// ErrNotFound is returned by Load when no manifest exists for the
// requested name.
var ErrNotFound = errors.New("manifest not found")

// NewStore creates a manifest store rooted at the given directory,
// creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("manifest store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes the manifest for its OriginalName, replacing any
// previous manifest for that name. The manifest is validated first —
// a structurally inconsistent manifest is never persisted.
func (s *Store) Save(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid manifest: %w", err)
	}

	data, err := Marshal(m)
	if err != nil {
		return err
	}

	finalPath := s.path(m.OriginalName)

	tmpFile, err := os.CreateTemp(s.root, "manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp manifest file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp manifest file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming manifest file: %w", err)
	}

	success = true
	return nil
}

// Load reads and validates the manifest for the given logical name.
// Returns ErrNotFound (wrapped) when no manifest exists.
func (s *Store) Load(name string) (*Manifest, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest for %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading manifest for %q: %w", name, err)
	}

	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("manifest for %q: %w", name, err)
	}
	return m, nil
}

// Exists reports whether a manifest exists for the given name.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Remove deletes the manifest for the given name. Removing a missing
// manifest is not an error.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing manifest for %q: %w", name, err)
	}
	return nil
}

// List returns the logical names of all stored manifests.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing manifests: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		escaped := strings.TrimSuffix(entry.Name(), ".json")
		name, err := url.PathUnescape(escaped)
		if err != nil {
			// Not one of ours; skip rather than fail the listing.
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// path maps a logical name to its manifest file. Names are opaque and
// may contain path separators, so they are percent-escaped into a
// single flat filename.
func (s *Store) path(name string) string {
	return filepath.Join(s.root, url.PathEscape(name)+".json")
}
