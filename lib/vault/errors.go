// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"fmt"

	"github.com/chunkvault/chunkvault/lib/transform"
)

// The error taxonomy. Every failure the vault surfaces is one of
// these typed errors, so callers can branch with errors.As. None of
// them is retried inside the vault: retrying a cryptographic or
// integrity failure against the same bytes cannot succeed. The only
// legitimate retry is caller-level — re-acquiring the artifact bytes
// from a different source and attempting the whole reconstruction
// again.

// ConfigurationError reports missing or invalid key material or size
// parameters. Surfaced immediately, before any transform work runs.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// EncodeError reports a compression or encryption failure on the
// write path. The whole file's chunking is aborted; no manifest is
// written and any artifacts already written for the attempt are
// removed.
type EncodeError struct {
	Index int
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding chunk %d: %v", e.Index, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a decryption or decompression failure on the
// read path: malformed, tampered, or wrongly-keyed ciphertext. age is
// authenticated, so tampering surfaces here rather than producing
// garbage plaintext. Fatal for the reconstruction attempt.
type DecodeError struct {
	Index    int
	Location string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding chunk %d (artifact %s): %v", e.Index, e.Location, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IntegrityError reports that a decoded chunk's plaintext digest does
// not match the manifest's recorded digest. Fatal and non-retryable;
// never silently ignored or auto-corrected.
type IntegrityError struct {
	Index    int
	Expected transform.Hash
	Actual   transform.Hash
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("chunk %d integrity check failed: manifest records %s, decoded plaintext hashes to %s",
		e.Index, transform.FormatHash(e.Expected), transform.FormatHash(e.Actual))
}

// SizeViolationError reports that a produced artifact exceeds the
// configured ceiling (Index ≥ 0), or that a reconstructed file's
// total length disagrees with the manifest (Index == -1). Fatal for
// the operation that triggered it.
type SizeViolationError struct {
	// Index is the offending chunk, or -1 for a whole-file length
	// mismatch.
	Index int

	// Limit is the ceiling (artifact case) or the recorded original
	// size (whole-file case).
	Limit int64

	// Actual is the observed size.
	Actual int64
}

func (e *SizeViolationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("chunk %d artifact is %d bytes, exceeding the %d byte ceiling",
			e.Index, e.Actual, e.Limit)
	}
	return fmt.Sprintf("reconstructed size %d does not match recorded original size %d",
		e.Actual, e.Limit)
}

// StructuralError reports that a manifest failed self-consistency
// validation (gaps or duplicates in chunk indices, size-sum mismatch,
// inconsistent tagged layout). Raised before any cryptographic work
// is attempted.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("manifest structure: %v", e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }
