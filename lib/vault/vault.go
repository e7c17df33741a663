// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault ties the chunk planner, the transform pipeline, the
// blob store, and the manifest store together into the two operations
// the rest of the system consumes: Store (plan, encode, persist) and
// Reconstruct (decode, verify, reassemble).
package vault

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/chunkvault/chunkvault/lib/blob"
	"github.com/chunkvault/chunkvault/lib/chunker"
	"github.com/chunkvault/chunkvault/lib/manifest"
	"github.com/chunkvault/chunkvault/lib/secret"
	"github.com/chunkvault/chunkvault/lib/transform"
)

// Options configures a Vault.
type Options struct {
	// Ceiling is the externally imposed maximum artifact size in
	// bytes. No produced ciphertext may exceed it. Defaults to
	// chunker.DefaultCeiling (100 MiB).
	Ceiling int64

	// Target is the nominal chunk size in bytes. Must be below the
	// ceiling to leave headroom for encryption expansion. Defaults
	// to chunker.DefaultTarget (10 MiB).
	Target int64

	// Compression is the algorithm requested for chunk payloads.
	// The zero value stores chunks uncompressed; incompressible
	// chunks fall back to none regardless of the request.
	Compression transform.CompressionTag

	// Level is the zstd encoder effort.
	Level transform.Level

	// Workers bounds the number of concurrent chunk encodes or
	// decodes within one operation. Defaults to GOMAXPROCS.
	Workers int

	// PublicKey is the age recipient for encoding. Required by
	// Store; Reconstruct does not use it.
	PublicKey string

	// PrivateKey is the age identity for decoding. Required by
	// Reconstruct; Store does not use it. The vault borrows the
	// buffer and never closes it.
	PrivateKey *secret.Buffer

	// Cache, when non-nil, memoizes decoded chunk plaintext across
	// reconstructions.
	Cache *Cache
}

// Vault is the chunk/manifest engine over an artifact store and a
// manifest store. It is safe for concurrent use; the decode cache is
// the only shared mutable state on the read path.
type Vault struct {
	opts      Options
	artifacts blob.Store
	manifests *manifest.Store

	// decodes counts artifact decode invocations (cache misses).
	// Observable via DecodeCount; tests use it to assert that the
	// cache suppresses redundant transform work.
	decodes atomic.Int64
}

// New creates a Vault. Size parameters are validated here so that a
// misconfigured vault fails at construction, not halfway through a
// write.
func New(artifacts blob.Store, manifests *manifest.Store, opts Options) (*Vault, error) {
	if artifacts == nil {
		return nil, &ConfigurationError{Reason: "artifact store is required"}
	}
	if manifests == nil {
		return nil, &ConfigurationError{Reason: "manifest store is required"}
	}

	if opts.Ceiling == 0 {
		opts.Ceiling = chunker.DefaultCeiling
	}
	if opts.Target == 0 {
		opts.Target = chunker.DefaultTarget
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	// Probe the size parameters once via the planner so that an
	// invalid ceiling/target pair surfaces now.
	if _, _, err := chunker.Plan(0, opts.Ceiling, opts.Target); err != nil {
		return nil, &ConfigurationError{Reason: "invalid size parameters", Err: err}
	}

	if opts.PublicKey != "" {
		if err := transform.ValidatePublicKey(opts.PublicKey); err != nil {
			return nil, &ConfigurationError{Reason: "invalid public key", Err: err}
		}
	}
	if opts.PrivateKey != nil {
		if err := transform.ValidatePrivateKey(opts.PrivateKey); err != nil {
			return nil, &ConfigurationError{Reason: "invalid private key", Err: err}
		}
	}

	return &Vault{
		opts:      opts,
		artifacts: artifacts,
		manifests: manifests,
	}, nil
}

// Manifests exposes the vault's manifest store for listing and
// existence checks.
func (v *Vault) Manifests() *manifest.Store {
	return v.manifests
}

// DecodeCount returns the number of artifact decode invocations
// performed so far (cache hits excluded).
func (v *Vault) DecodeCount() int64 {
	return v.decodes.Load()
}

// runWorkers executes fn(index) for every index in [0, count) across
// at most v.opts.Workers goroutines. The first failure (or context
// cancellation) stops the remaining work and is returned. Results are
// communicated through whatever slice fn writes into — each index is
// handled exactly once, so per-index slots need no locking.
func (v *Vault) runWorkers(ctx context.Context, count int, fn func(index int) error) error {
	workers := v.opts.Workers
	if workers > count {
		workers = count
	}
	if workers < 1 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		waitGroup sync.WaitGroup
		once      sync.Once
		firstErr  error
	)

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for range workers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for index := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := fn(index); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for index := 0; index < count; index++ {
		select {
		case jobs <- index:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	waitGroup.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("operation canceled: %w", err)
	}
	return nil
}
