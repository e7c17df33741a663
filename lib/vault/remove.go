// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"errors"
	"fmt"

	"github.com/chunkvault/chunkvault/lib/blob"
	"github.com/chunkvault/chunkvault/lib/manifest"
)

// Remove deletes a stored file: every chunk artifact its manifest
// references, then the manifest itself. The manifest is removed last
// so an interrupted removal leaves a manifest whose missing artifacts
// surface as read errors rather than silently orphaned artifacts. An
// artifact that is already gone does not fail the removal.
func (v *Vault) Remove(name string) error {
	m, err := v.manifests.Load(name)
	if err != nil {
		return fmt.Errorf("loading manifest for %q: %w", name, err)
	}

	for _, record := range m.Records() {
		if err := v.artifacts.Remove(record.Location); err != nil && !errors.Is(err, blob.ErrNotFound) {
			return fmt.Errorf("removing chunk %d artifact %s: %w", record.Index, record.Location, err)
		}
		if v.opts.Cache != nil {
			v.opts.Cache.Drop(record.Location)
		}
	}

	if err := v.manifests.Remove(name); err != nil && !errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("removing manifest for %q: %w", name, err)
	}
	return nil
}
