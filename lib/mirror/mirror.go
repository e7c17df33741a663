// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package mirror moves a stored file between vaults as a single byte
// stream: the manifest plus every chunk artifact it references,
// framed so the receiving side can validate each piece before
// committing it. Artifacts travel as ciphertext; a mirror target
// never needs the private key.
//
// Wire layout:
//
//	[4-byte length][CBOR archiveHeader]
//	[4-byte length][CBOR manifest]
//	per chunk, in index order:
//	  [4-byte length][CBOR artifactHeader][ciphertext bytes]
package mirror

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chunkvault/chunkvault/lib/blob"
	"github.com/chunkvault/chunkvault/lib/codec"
	"github.com/chunkvault/chunkvault/lib/manifest"
)

// archiveMagic identifies a mirror stream. Checked before anything
// else is decoded.
const archiveMagic = "chunkvault-mirror"

// archiveVersion is the current wire format version. A reader rejects
// versions it does not know.
const archiveVersion = 1

// maxMessageSize bounds a single length-prefixed CBOR message. The
// largest realistic message is a manifest with thousands of chunk
// records; artifact ciphertext is streamed outside the messages and
// is not subject to this limit.
const maxMessageSize = 4 * 1024 * 1024

// maxArtifactSize bounds a single chunk's ciphertext. A manifest only
// proves its sizes are positive, so the cap is enforced here before
// any allocation sized from the stream. Well above any ceiling a
// vault would accept, far below what a hostile stream could declare.
const maxArtifactSize = 1 << 30

type archiveHeader struct {
	Magic     string `json:"magic"`
	Version   int    `json:"version"`
	NumChunks int    `json:"num_chunks"`
}

// artifactHeader precedes each chunk's ciphertext. Index and Location
// must match the corresponding manifest record, and exactly Size
// bytes of ciphertext follow.
type artifactHeader struct {
	Index    int    `json:"index"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

// Export writes the manifest and all of its chunk artifacts to w.
// Artifacts are read from the blob store and emitted in chunk index
// order.
func Export(w io.Writer, m *manifest.Manifest, artifacts blob.Store) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to export invalid manifest: %w", err)
	}

	records := m.Records()
	header := archiveHeader{
		Magic:     archiveMagic,
		Version:   archiveVersion,
		NumChunks: len(records),
	}
	if err := writeMessage(w, header); err != nil {
		return fmt.Errorf("writing archive header: %w", err)
	}
	if err := writeMessage(w, m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for _, record := range records {
		ciphertext, err := artifacts.Read(record.Location)
		if err != nil {
			return fmt.Errorf("reading chunk %d artifact %s: %w", record.Index, record.Location, err)
		}
		if int64(len(ciphertext)) != record.CiphertextSize {
			return fmt.Errorf("chunk %d artifact %s is %d bytes, manifest records %d",
				record.Index, record.Location, len(ciphertext), record.CiphertextSize)
		}
		if err := writeMessage(w, artifactHeader{
			Index:    record.Index,
			Location: record.Location,
			Size:     record.CiphertextSize,
		}); err != nil {
			return fmt.Errorf("writing chunk %d header: %w", record.Index, err)
		}
		if _, err := w.Write(ciphertext); err != nil {
			return fmt.Errorf("writing chunk %d ciphertext: %w", record.Index, err)
		}
	}
	return nil
}

// Import reads a mirror stream from r, stores every chunk artifact in
// the blob store, and persists the manifest last. Each artifact is
// checked against its manifest record before it is written; any
// mismatch aborts the import, and artifacts written by the aborted
// attempt are removed best-effort. A manifest is only ever persisted
// with all of its artifacts durable.
func Import(r io.Reader, artifacts blob.Store, manifests *manifest.Store) (*manifest.Manifest, error) {
	var header archiveHeader
	if err := readMessage(r, &header); err != nil {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	if header.Magic != archiveMagic {
		return nil, fmt.Errorf("not a mirror stream: magic %q", header.Magic)
	}
	if header.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported mirror stream version %d", header.Version)
	}

	var m manifest.Manifest
	if err := readMessage(r, &m); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("stream carries invalid manifest: %w", err)
	}

	records := m.Records()
	if header.NumChunks != len(records) {
		return nil, fmt.Errorf("archive header declares %d chunks, manifest has %d",
			header.NumChunks, len(records))
	}

	var written []string
	abort := func(err error) (*manifest.Manifest, error) {
		for _, location := range written {
			_ = artifacts.Remove(location)
		}
		return nil, err
	}

	for _, record := range records {
		var artifact artifactHeader
		if err := readMessage(r, &artifact); err != nil {
			return abort(fmt.Errorf("reading chunk %d header: %w", record.Index, err))
		}
		if artifact.Index != record.Index || artifact.Location != record.Location {
			return abort(fmt.Errorf("chunk header (%d, %s) does not match manifest record (%d, %s)",
				artifact.Index, artifact.Location, record.Index, record.Location))
		}
		if artifact.Size != record.CiphertextSize {
			return abort(fmt.Errorf("chunk %d header declares %d bytes, manifest records %d",
				record.Index, artifact.Size, record.CiphertextSize))
		}
		if artifact.Size > maxArtifactSize {
			return abort(fmt.Errorf("chunk %d declares %d bytes, exceeding the %d byte artifact maximum",
				record.Index, artifact.Size, maxArtifactSize))
		}

		ciphertext := make([]byte, artifact.Size)
		if _, err := io.ReadFull(r, ciphertext); err != nil {
			return abort(fmt.Errorf("reading chunk %d ciphertext: %w", record.Index, err))
		}
		if err := artifacts.Write(record.Location, ciphertext); err != nil {
			return abort(fmt.Errorf("storing chunk %d artifact: %w", record.Index, err))
		}
		written = append(written, record.Location)
	}

	if err := manifests.Save(&m); err != nil {
		return abort(fmt.Errorf("persisting manifest: %w", err))
	}
	return &m, nil
}

// writeMessage encodes v as CBOR and writes it with a 4-byte
// big-endian length prefix.
func writeMessage(w io.Writer, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	var lengthPrefix [4]byte
	binary.BigEndian.PutUint32(lengthPrefix[:], uint32(len(data)))
	if _, err := w.Write(lengthPrefix[:]); err != nil {
		return fmt.Errorf("writing message length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	return nil
}

// readMessage reads a length-prefixed CBOR message and decodes it
// into v. Rejects messages larger than maxMessageSize.
func readMessage(r io.Reader, v any) error {
	var lengthPrefix [4]byte
	if _, err := io.ReadFull(r, lengthPrefix[:]); err != nil {
		return fmt.Errorf("reading message length: %w", err)
	}
	length := binary.BigEndian.Uint32(lengthPrefix[:])
	if length > maxMessageSize {
		return fmt.Errorf("message size %d exceeds maximum %d", length, maxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("reading message body: %w", err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}
	return nil
}
