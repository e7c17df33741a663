// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package transform implements the per-chunk transform pipeline:
// hash, then compress, then encrypt on the write path, and the exact
// inverse on the read path. Encode and Decode are pure transforms
// over in-memory buffers — no partial effects on failure, and no
// fallback to an unencrypted or uncompressed representation.
package transform

import (
	"fmt"

	"github.com/chunkvault/chunkvault/lib/secret"
)

// EncodeResult describes the outcome of encoding one chunk.
type EncodeResult struct {
	// Ciphertext is the stored artifact bytes (compressed, then
	// encrypted).
	Ciphertext []byte

	// PlaintextHash is the BLAKE3 digest of the raw input, computed
	// before compression.
	PlaintextHash Hash

	// PlaintextSize is the raw input length in bytes.
	PlaintextSize int64

	// Compression is the algorithm actually applied. May be
	// CompressionNone even when another algorithm was requested, if
	// the input was incompressible.
	Compression CompressionTag
}

// Encode runs the write-path pipeline over one plaintext chunk:
// compute the plaintext hash, compress (falling back to no
// compression for incompressible input), and encrypt to the given
// age public key. Any stage failure aborts the chunk — there is no
// degraded output.
func Encode(plaintext []byte, publicKey string, tag CompressionTag, level Level) (*EncodeResult, error) {
	hash := HashPlaintext(plaintext)

	compressed, usedTag, err := CompressAuto(plaintext, tag, level)
	if err != nil {
		return nil, fmt.Errorf("compressing chunk: %w", err)
	}

	ciphertext, err := Encrypt(compressed, publicKey)
	if err != nil {
		return nil, fmt.Errorf("encrypting chunk: %w", err)
	}

	return &EncodeResult{
		Ciphertext:    ciphertext,
		PlaintextHash: hash,
		PlaintextSize: int64(len(plaintext)),
		Compression:   usedTag,
	}, nil
}

// Decode reverses Encode: decrypt with the private key, then
// decompress with the recorded tag. plaintextSize is the expected
// decompressed length from the chunk record; the decompressor
// verifies it. Decode does NOT verify the plaintext hash — that is
// the reassembler's job, so the verification failure can be reported
// with the chunk's index.
func Decode(ciphertext []byte, privateKey *secret.Buffer, tag CompressionTag, plaintextSize int64) ([]byte, error) {
	compressed, err := Decrypt(ciphertext, privateKey)
	if err != nil {
		return nil, fmt.Errorf("decrypting chunk: %w", err)
	}

	plaintext, err := Decompress(compressed, tag, int(plaintextSize))
	if err != nil {
		return nil, fmt.Errorf("decompressing chunk: %w", err)
	}
	return plaintext, nil
}
