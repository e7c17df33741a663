// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chunkvault/chunkvault/lib/blob"
	"github.com/chunkvault/chunkvault/lib/chunker"
	"github.com/chunkvault/chunkvault/lib/manifest"
	"github.com/chunkvault/chunkvault/lib/transform"
)

// encodedChunk pairs one planned range's encode result with the
// location its ciphertext was written to.
type encodedChunk struct {
	result   *transform.EncodeResult
	location string
}

// Store splits data according to the vault's size parameters, runs
// the transform pipeline over every range, writes all chunk artifacts
// to the blob store, and finally persists the manifest. The manifest
// is written last and atomically, so a reader can never observe a
// manifest whose artifacts are not fully durable.
//
// Chunk encodes run in parallel across the vault's worker bound.
// Every produced ciphertext is re-checked against the ceiling after
// encoding; the plan's headroom is never trusted. On any failure
// (including context cancellation) the already-written artifacts of
// this attempt are removed best-effort and no manifest is written.
func (v *Vault) Store(ctx context.Context, name string, data []byte) (*manifest.Manifest, error) {
	if name == "" {
		return nil, &ConfigurationError{Reason: "logical name is required"}
	}
	if v.opts.PublicKey == "" {
		return nil, &ConfigurationError{Reason: "encryption public key is required to store"}
	}

	ranges, chunked, err := chunker.Plan(int64(len(data)), v.opts.Ceiling, v.opts.Target)
	if err != nil {
		return nil, &ConfigurationError{Reason: "planning chunks", Err: err}
	}

	encoded := make([]encodedChunk, len(ranges))

	// Locations written so far, for cleanup on abort. Appended under
	// a lock because workers complete in arbitrary order.
	var (
		writtenMu sync.Mutex
		written   []string
	)

	err = v.runWorkers(ctx, len(ranges), func(index int) error {
		byteRange := ranges[index]
		slice := data[byteRange.Offset:byteRange.End()]

		result, encodeErr := transform.Encode(slice, v.opts.PublicKey, v.opts.Compression, v.opts.Level)
		if encodeErr != nil {
			return &EncodeError{Index: index, Err: encodeErr}
		}

		// The hard constraint: compression may have been
		// ineffective and encryption always expands, so the
		// ciphertext is measured, not assumed.
		if int64(len(result.Ciphertext)) > v.opts.Ceiling {
			return &SizeViolationError{
				Index:  index,
				Limit:  v.opts.Ceiling,
				Actual: int64(len(result.Ciphertext)),
			}
		}

		location := blob.NewLocation()
		if writeErr := v.artifacts.Write(location, result.Ciphertext); writeErr != nil {
			return fmt.Errorf("writing chunk %d artifact: %w", index, writeErr)
		}

		writtenMu.Lock()
		written = append(written, location)
		writtenMu.Unlock()

		encoded[index] = encodedChunk{result: result, location: location}
		return nil
	})
	if err != nil {
		v.removeArtifacts(written)
		return nil, err
	}

	m := buildManifest(name, int64(len(data)), v.opts.Target, chunked, encoded)

	if err := v.manifests.Save(m); err != nil {
		v.removeArtifacts(written)
		return nil, fmt.Errorf("persisting manifest for %q: %w", name, err)
	}
	return m, nil
}

// buildManifest assembles the manifest for a completed write: the
// tagged single-artifact form for an unchunked file, the dense chunk
// list otherwise.
func buildManifest(name string, originalSize, target int64, chunked bool, encoded []encodedChunk) *manifest.Manifest {
	m := &manifest.Manifest{
		OriginalName:    name,
		OriginalSize:    originalSize,
		ChunkSizeTarget: target,
		IsChunked:       chunked,
		CreatedAt:       time.Now().UTC(),
	}

	if !chunked {
		single := encoded[0]
		m.Single = &manifest.SingleArtifact{
			Location:       single.location,
			CiphertextSize: int64(len(single.result.Ciphertext)),
			PlaintextHash:  single.result.PlaintextHash,
			Compression:    single.result.Compression,
		}
		return m
	}

	m.Chunks = make([]manifest.ChunkRecord, len(encoded))
	for index, chunk := range encoded {
		m.Chunks[index] = manifest.ChunkRecord{
			Index:          index,
			Location:       chunk.location,
			CiphertextSize: int64(len(chunk.result.Ciphertext)),
			PlaintextSize:  chunk.result.PlaintextSize,
			PlaintextHash:  chunk.result.PlaintextHash,
			Compression:    chunk.result.Compression,
		}
	}
	return m
}

// removeArtifacts deletes the artifacts of an aborted write attempt.
// Best-effort: an artifact that cannot be removed is merely orphaned.
// No manifest references it, so it is safe to garbage-collect later.
func (v *Vault) removeArtifacts(locations []string) {
	for _, location := range locations {
		_ = v.artifacts.Remove(location)
	}
}
