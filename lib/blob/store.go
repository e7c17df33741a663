// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package blob defines the artifact store boundary: a location→bytes
// interface for the encoded (compressed+encrypted) chunk artifacts,
// plus a filesystem implementation. The chunk/manifest core only
// needs write, read, exists, and remove — anything that can provide
// those (an object store, a remote mirror) can stand in.
package blob

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the artifact storage boundary. Locations are opaque
// strings minted by NewLocation; implementations may map them to
// paths or keys however they like.
type Store interface {
	// Write stores the artifact bytes at the given location,
	// atomically: a concurrent Read never observes a partial
	// artifact.
	Write(location string, data []byte) error

	// Read returns the artifact bytes at the given location.
	Read(location string) ([]byte, error)

	// Exists reports whether an artifact is present at the location.
	Exists(location string) bool

	// Remove deletes the artifact at the location. Used to garbage-
	// collect artifacts of aborted write attempts; removing a
	// missing artifact is not an error.
	Remove(location string) error
}

// ErrNotFound is returned by Read when no artifact exists at the
// requested location.
var ErrNotFound = errors.New("artifact not found")

// NewLocation mints a fresh, unique artifact location: 32 hex
// characters of randomness. Locations are never derived from content,
// so identical chunks in different files (or in a retried write
// attempt) land at distinct locations and can be removed
// independently.
func NewLocation() string {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failure means the platform's entropy source is
		// broken; nothing sensible can continue.
		panic("blob: reading random bytes for location: " + err.Error())
	}
	return hex.EncodeToString(raw[:])
}

// FSStore stores artifacts as files under a root directory, sharded
// two levels deep by location prefix to keep directory fan-out
// bounded. Writes go through a temp file and rename.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem artifact store rooted at the given
// directory, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact store root is required")
	}
	for _, dir := range []string{root, filepath.Join(root, "tmp")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating artifact store directory %s: %w", dir, err)
		}
	}
	return &FSStore{root: root}, nil
}

// Write stores artifact bytes at the location, atomically via temp
// file + rename.
func (s *FSStore) Write(location string, data []byte) error {
	finalPath, err := s.path(location)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("creating artifact shard directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
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
		return fmt.Errorf("writing artifact %s: %w", location, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp artifact file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming artifact %s into place: %w", location, err)
	}

	success = true
	return nil
}

// Read returns the artifact bytes at the location. Returns
// ErrNotFound (wrapped) when the artifact does not exist.
func (s *FSStore) Read(location string) ([]byte, error) {
	path, err := s.path(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", location, ErrNotFound)
		}
		return nil, fmt.Errorf("reading artifact %s: %w", location, err)
	}
	return data, nil
}

// Exists reports whether an artifact is present at the location.
func (s *FSStore) Exists(location string) bool {
	path, err := s.path(location)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Remove deletes the artifact at the location. Missing artifacts are
// ignored.
func (s *FSStore) Remove(location string) error {
	path, err := s.path(location)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact %s: %w", location, err)
	}
	return nil
}

// path maps a location to its sharded file path:
// <root>/<hex[:2]>/<hex[2:4]>/<hex>. Locations must be lowercase hex
// (the NewLocation format); anything else is rejected so a location
// can never escape the store root.
func (s *FSStore) path(location string) (string, error) {
	if len(location) < 4 {
		return "", fmt.Errorf("artifact location %q is too short", location)
	}
	for _, c := range location {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("artifact location %q contains non-hex characters", location)
		}
	}
	return filepath.Join(s.root, location[:2], location[2:4], location), nil
}
