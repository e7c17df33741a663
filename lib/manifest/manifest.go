// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest defines the record describing how a stored file
// is located, verified, and reassembled, together with its JSON
// serialization and a filesystem manifest store.
//
// A manifest is created once, after every chunk artifact has been
// durably written, and is immutable thereafter. Re-chunking a file
// produces a new manifest; the read path never mutates one.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chunkvault/chunkvault/lib/transform"
)

// Manifest is the authoritative record for one logical source file.
// Exactly one of Single or Chunks is populated: Single for files
// stored as one artifact (IsChunked false), Chunks for split files
// (IsChunked true). A manifest with both or neither set fails
// validation — the two storage forms never share fields whose
// validity depends on the flag.
type Manifest struct {
	// OriginalName identifies the source file. Opaque to the
	// chunk/manifest core; it is the manifest store's lookup key.
	OriginalName string `json:"original_name"`

	// OriginalSize is the exact byte length of the source file
	// before any transform. Always equals the sum of the chunk
	// plaintext sizes and the length of the reconstructed buffer.
	OriginalSize int64 `json:"original_size"`

	// ChunkSizeTarget is the nominal split size used at creation
	// time. Diagnostic only — reconstruction relies solely on the
	// per-chunk records.
	ChunkSizeTarget int64 `json:"chunk_size_target"`

	// IsChunked reports which storage form applies.
	IsChunked bool `json:"is_chunked"`

	// Single describes the lone artifact of an unchunked file.
	Single *SingleArtifact `json:"single,omitempty"`

	// Chunks is the ordered chunk list of a split file, indices
	// forming a dense 0..N-1 range.
	Chunks []ChunkRecord `json:"chunks,omitempty"`

	// CreatedAt is the creation timestamp. Informational only.
	CreatedAt time.Time `json:"created_at"`
}

// SingleArtifact holds the artifact fields of an unchunked file. The
// plaintext size is the manifest's OriginalSize.
type SingleArtifact struct {
	// Location references the stored artifact bytes. Opaque to this
	// core — the blob store interprets it.
	Location string `json:"location"`

	// CiphertextSize is the stored artifact length (post
	// compress+encrypt).
	CiphertextSize int64 `json:"ciphertext_size"`

	// PlaintextHash is the BLAKE3 digest of the file's raw bytes,
	// computed before compression.
	PlaintextHash transform.Hash `json:"plaintext_hash"`

	// Compression is the algorithm applied before encryption.
	Compression transform.CompressionTag `json:"compression"`
}

// ChunkRecord describes one chunk artifact of a split file.
type ChunkRecord struct {
	// Index is the chunk's zero-based position in the original file.
	Index int `json:"index"`

	// Location references the stored artifact bytes.
	Location string `json:"location"`

	// CiphertextSize is the stored artifact length. Never exceeds
	// the configured size ceiling; the encoder verifies this before
	// the record is created.
	CiphertextSize int64 `json:"ciphertext_size"`

	// PlaintextSize is the byte length of the original slice this
	// chunk represents.
	PlaintextSize int64 `json:"plaintext_size"`

	// PlaintextHash is the BLAKE3 digest of the plaintext slice,
	// computed before compression. Recomputed after decode on read;
	// a mismatch rejects the chunk.
	PlaintextHash transform.Hash `json:"plaintext_hash"`

	// Compression is the algorithm applied before encryption. May
	// be "none" when the slice was incompressible.
	Compression transform.CompressionTag `json:"compression"`
}

// Records returns the manifest's chunk records in index order. For an
// unchunked manifest it synthesizes the single implicit record (index
// 0, plaintext size equal to OriginalSize), so callers can treat both
// storage forms uniformly.
func (m *Manifest) Records() []ChunkRecord {
	if !m.IsChunked {
		return []ChunkRecord{{
			Index:          0,
			Location:       m.Single.Location,
			CiphertextSize: m.Single.CiphertextSize,
			PlaintextSize:  m.OriginalSize,
			PlaintextHash:  m.Single.PlaintextHash,
			Compression:    m.Single.Compression,
		}}
	}
	return m.Chunks
}

// NumChunks returns the number of stored artifacts: 1 for an
// unchunked manifest, len(Chunks) otherwise.
func (m *Manifest) NumChunks() int {
	if !m.IsChunked {
		return 1
	}
	return len(m.Chunks)
}

// Validate checks the manifest's structural invariants: the tagged
// layout matches the IsChunked flag, chunk indices form a dense
// 0..N-1 sequence with no gaps or duplicates, locations are
// non-empty, and the plaintext sizes sum to OriginalSize. This is a
// corruption signal independent of any cryptographic verification,
// checked before decode work is attempted.
func (m *Manifest) Validate() error {
	if m.OriginalName == "" {
		return fmt.Errorf("original name is empty")
	}
	if m.OriginalSize < 0 {
		return fmt.Errorf("original size %d is negative", m.OriginalSize)
	}

	if m.IsChunked {
		if m.Single != nil {
			return fmt.Errorf("chunked manifest carries a single-artifact record")
		}
		if len(m.Chunks) == 0 {
			return fmt.Errorf("chunked manifest has no chunks")
		}
		return m.validateChunks()
	}

	if len(m.Chunks) != 0 {
		return fmt.Errorf("unchunked manifest carries %d chunk records", len(m.Chunks))
	}
	if m.Single == nil {
		return fmt.Errorf("unchunked manifest has no artifact record")
	}
	if m.Single.Location == "" {
		return fmt.Errorf("artifact location is empty")
	}
	if m.Single.CiphertextSize < 1 {
		return fmt.Errorf("artifact ciphertext size %d is invalid (minimum 1)", m.Single.CiphertextSize)
	}
	return nil
}

func (m *Manifest) validateChunks() error {
	var plaintextTotal int64

	for position, record := range m.Chunks {
		if record.Index != position {
			return fmt.Errorf("chunk at position %d has index %d (indices must be dense and ascending)",
				position, record.Index)
		}
		if record.Location == "" {
			return fmt.Errorf("chunk %d: location is empty", record.Index)
		}
		if record.CiphertextSize < 1 {
			return fmt.Errorf("chunk %d: ciphertext size %d is invalid (minimum 1)",
				record.Index, record.CiphertextSize)
		}
		if record.PlaintextSize < 0 {
			return fmt.Errorf("chunk %d: plaintext size %d is negative", record.Index, record.PlaintextSize)
		}
		plaintextTotal += record.PlaintextSize
	}

	if plaintextTotal != m.OriginalSize {
		return fmt.Errorf("chunk plaintext sizes sum to %d, but original size is %d",
			plaintextTotal, m.OriginalSize)
	}
	return nil
}

// Marshal encodes a manifest to indented JSON, the durable
// structured-text form persisted by the manifest store.
func Marshal(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a JSON manifest and validates it. A structurally
// inconsistent manifest is rejected here, before any artifact is
// read.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
