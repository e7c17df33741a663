// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/chunkvault/chunkvault/lib/secret"
)

// Encryption wraps age X25519 public-key encryption for chunk
// payloads. The public key is a plain "age1..." string (safe to
// publish, stored in configuration); the private key lives in a
// secret.Buffer (mmap-backed, locked against swap, excluded from core
// dumps, zeroed on close) and is only parsed at the decryption call
// boundary.
//
// age is an authenticated scheme: decryption with the wrong identity
// or over tampered ciphertext fails outright. Tampering is therefore
// detected at the decrypt stage, before decompression ever sees the
// bytes.

// Encrypt encrypts plaintext to the recipient identified by an age
// public key string. Returns the raw binary ciphertext.
func Encrypt(plaintext []byte, publicKey string) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient key: %w", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}

	return ciphertext.Bytes(), nil
}

// Decrypt decrypts ciphertext produced by Encrypt using the private
// key held in a secret.Buffer. The key is borrowed (read via
// .String() to parse the age identity) and is NOT closed by this
// function.
//
// Fails when the ciphertext was encrypted to a different key or has
// been modified in any way.
func Decrypt(ciphertext []byte, privateKey *secret.Buffer) ([]byte, error) {
	// Convert the buffer to a string at the API boundary —
	// age.ParseX25519Identity requires a string. The heap copy is
	// brief and call-scoped.
	identity, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}

// Keypair holds an age X25519 keypair. The private key is stored in
// a secret.Buffer; the public key is a plain string.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	// PrivateKey is the secret key in AGE-SECRET-KEY-1... format,
	// stored in mmap memory outside the Go heap. Must never be
	// logged or included in CLI arguments.
	PrivateKey *secret.Buffer

	// PublicKey is the corresponding public key in age1... format.
	PublicKey string
}

// Close releases the private key memory (zeros, unlocks, unmaps).
// Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair generates a new age X25519 keypair. The private key
// is moved into a secret.Buffer immediately.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}

	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}

	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ValidatePublicKey checks that a string is a valid age X25519 public
// key. Used to fail configuration errors early, before any encode
// work starts.
func ValidatePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

// ValidatePrivateKey checks that a secret.Buffer holds a valid age
// X25519 private key.
func ValidatePrivateKey(privateKey *secret.Buffer) error {
	if _, err := age.ParseX25519Identity(privateKey.String()); err != nil {
		return fmt.Errorf("invalid age private key: %w", err)
	}
	return nil
}
