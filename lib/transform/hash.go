// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of a chunk's plaintext. It is
// computed over the raw bytes before compression, so the recorded
// value is independent of the compression algorithm chosen for the
// chunk.
type Hash [32]byte

// plaintextDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// chunk plaintext. Domain separation keeps plaintext digests from
// colliding with any other keyed-hash use of the same bytes. The
// value is the ASCII domain name zero-padded to 32 bytes, which keeps
// the key inspectable in hex dumps without sacrificing any
// cryptographic property.
var plaintextDomainKey = [32]byte{
	'c', 'h', 'u', 'n', 'k', 'v', 'a', 'u', 'l', 't', '.',
	'p', 'l', 'a', 'i', 'n', 't', 'e', 'x', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashPlaintext computes the plaintext-domain BLAKE3 keyed hash of
// data. This is the digest recorded in chunk records and verified
// after every decode.
func HashPlaintext(data []byte) Hash {
	// NewKeyed requires exactly 32 bytes, which the fixed-size key
	// guarantees, so the error path is unreachable.
	hasher, err := blake3.NewKeyed(plaintextDomainKey[:])
	if err != nil {
		panic("transform: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in manifests, logs, and CLI
// output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// MarshalText implements encoding.TextMarshaler, so a Hash appears
// as a hex string in JSON manifests and CBOR mirror streams.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(FormatHash(h)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing plaintext hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("plaintext hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}
