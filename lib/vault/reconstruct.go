// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"fmt"

	"github.com/chunkvault/chunkvault/lib/manifest"
	"github.com/chunkvault/chunkvault/lib/transform"
)

// Reconstruct rebuilds the original file described by a manifest.
// Chunk decodes run in parallel, but assembly is strictly by chunk
// index: the output is the concatenation of plaintexts 0..N-1
// regardless of completion order. Every chunk's plaintext hash is
// verified against its manifest record before it contributes a single
// byte to the result.
func (v *Vault) Reconstruct(ctx context.Context, m *manifest.Manifest) ([]byte, error) {
	if v.opts.PrivateKey == nil {
		return nil, &ConfigurationError{Reason: "decryption private key is required to reconstruct"}
	}
	if err := m.Validate(); err != nil {
		return nil, &StructuralError{Err: err}
	}

	records := m.Records()
	plaintexts := make([][]byte, len(records))

	err := v.runWorkers(ctx, len(records), func(index int) error {
		plaintext, decodeErr := v.decodeRecord(records[index], true)
		if decodeErr != nil {
			return decodeErr
		}
		plaintexts[index] = plaintext
		return nil
	})
	if err != nil {
		return nil, err
	}

	assembled := make([]byte, 0, m.OriginalSize)
	for _, plaintext := range plaintexts {
		assembled = append(assembled, plaintext...)
	}
	if int64(len(assembled)) != m.OriginalSize {
		return nil, &SizeViolationError{
			Index:  -1,
			Limit:  m.OriginalSize,
			Actual: int64(len(assembled)),
		}
	}
	return assembled, nil
}

// ReconstructName loads the named manifest and reconstructs the file
// it describes.
func (v *Vault) ReconstructName(ctx context.Context, name string) ([]byte, error) {
	m, err := v.manifests.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading manifest for %q: %w", name, err)
	}
	return v.Reconstruct(ctx, m)
}

// Verify decodes and hash-checks every chunk of a manifest without
// assembling the result. It reports the first integrity or decode
// failure found, or nil when every chunk proves intact.
//
// Verify is a statement about the stored artifacts, so it bypasses
// the decode cache: a warm cache would attest to bytes that are no
// longer on disk. Every chunk is read and decoded from the store.
func (v *Vault) Verify(ctx context.Context, m *manifest.Manifest) error {
	if v.opts.PrivateKey == nil {
		return &ConfigurationError{Reason: "decryption private key is required to verify"}
	}
	if err := m.Validate(); err != nil {
		return &StructuralError{Err: err}
	}

	records := m.Records()
	return v.runWorkers(ctx, len(records), func(index int) error {
		_, err := v.decodeRecord(records[index], false)
		return err
	})
}

// decodeRecord produces the verified plaintext of one chunk record.
// When useCache is set, the decode cache is consulted first: a hit
// skips decryption, decompression, and hash verification, because
// the cache is keyed by location and only ever holds plaintexts that
// verified on the way in. Plaintext that verifies here is cached
// regardless, so a verification pass warms the cache.
func (v *Vault) decodeRecord(record manifest.ChunkRecord, useCache bool) ([]byte, error) {
	if useCache && v.opts.Cache != nil {
		if plaintext, ok := v.opts.Cache.Get(record.Location); ok {
			return plaintext, nil
		}
	}

	ciphertext, err := v.artifacts.Read(record.Location)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %d artifact %s: %w", record.Index, record.Location, err)
	}

	v.decodes.Add(1)

	plaintext, err := transform.Decode(ciphertext, v.opts.PrivateKey, record.Compression, record.PlaintextSize)
	if err != nil {
		return nil, &DecodeError{Index: record.Index, Location: record.Location, Err: err}
	}

	actual := transform.HashPlaintext(plaintext)
	if actual != record.PlaintextHash {
		return nil, &IntegrityError{
			Index:    record.Index,
			Expected: record.PlaintextHash,
			Actual:   actual,
		}
	}

	if v.opts.Cache != nil {
		v.opts.Cache.Put(record.Location, plaintext)
	}
	return plaintext, nil
}
