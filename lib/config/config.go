// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for chunkvault
// commands.
//
// Configuration is loaded from a single YAML file specified by:
//   - CHUNKVAULT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// The config file is the single source of truth. Environment
// variables do not override individual values; the only expansion
// performed is ${HOME} in paths for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chunkvault/chunkvault/lib/transform"
)

// Config is the master configuration for chunkvault.
type Config struct {
	// Paths configures storage directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Chunking configures the size parameters of the chunk planner.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Transform configures the per-chunk encode pipeline.
	Transform TransformConfig `yaml:"transform"`

	// Keys configures encryption key material.
	Keys KeysConfig `yaml:"keys"`

	// Workers bounds the number of concurrent chunk encodes and
	// decodes. Zero means one worker per CPU.
	Workers int `yaml:"workers"`

	// CacheBytes bounds the decoded-chunk cache in bytes. Zero
	// disables the cache.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// PathsConfig configures storage directory locations.
type PathsConfig struct {
	// Root is the base directory for chunkvault data.
	Root string `yaml:"root"`

	// Artifacts is where encoded chunk artifacts are stored.
	// Default: <root>/artifacts.
	Artifacts string `yaml:"artifacts"`

	// Manifests is where manifests are stored.
	// Default: <root>/manifests.
	Manifests string `yaml:"manifests"`
}

// ChunkingConfig configures the size parameters of the chunk planner.
type ChunkingConfig struct {
	// Ceiling is the hard upper bound, in bytes, on any stored
	// artifact. Default: 100 MiB.
	Ceiling int64 `yaml:"ceiling"`

	// Target is the preferred chunk size, in bytes, for files that
	// must be split. Must be strictly less than Ceiling.
	// Default: 10 MiB.
	Target int64 `yaml:"target"`
}

// TransformConfig configures the per-chunk encode pipeline.
type TransformConfig struct {
	// Compression names the algorithm requested for new chunks:
	// "none", "lz4", or "zstd". Incompressible chunks are stored
	// uncompressed regardless. Default: zstd.
	Compression string `yaml:"compression"`

	// Level selects the compression effort: "default", "fastest",
	// "better", or "best". Ignored for lz4 and none.
	Level string `yaml:"level"`
}

// KeysConfig configures encryption key material.
type KeysConfig struct {
	// PublicKey is the age X25519 recipient new chunks are encrypted
	// to. Required for store operations.
	PublicKey string `yaml:"public_key"`

	// PrivateKeyPath is the file holding the age identity, or "-" to
	// read it from stdin. Required for restore and verify. The key
	// itself never appears in the config file.
	PrivateKeyPath string `yaml:"private_key_path"`
}

// Default returns the default configuration. These defaults are a
// base merged under the loaded file, so every field has a sensible
// value even when the file only sets keys.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "chunkvault")

	return &Config{
		Paths: PathsConfig{
			Root: defaultRoot,
		},
		Chunking: ChunkingConfig{
			Ceiling: 100 * 1024 * 1024,
			Target:  10 * 1024 * 1024,
		},
		Transform: TransformConfig{
			Compression: "zstd",
			Level:       "default",
		},
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Load loads configuration from the CHUNKVAULT_CONFIG environment
// variable. If the variable is unset, the defaults are returned so
// commands work out of the box against the default data directory.
func Load() (*Config, error) {
	configPath := os.Getenv("CHUNKVAULT_CONFIG")
	if configPath == "" {
		cfg := Default()
		cfg.fillDerivedPaths()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merged over
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	cfg.fillDerivedPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// fillDerivedPaths fills the artifact and manifest directories from
// the root when the file does not set them.
func (c *Config) fillDerivedPaths() {
	if c.Paths.Artifacts == "" {
		c.Paths.Artifacts = filepath.Join(c.Paths.Root, "artifacts")
	}
	if c.Paths.Manifests == "" {
		c.Paths.Manifests = filepath.Join(c.Paths.Root, "manifests")
	}
}

// expandVariables expands ${HOME} in configured paths.
func (c *Config) expandVariables() {
	homeDir, _ := os.UserHomeDir()
	expand := func(s string) string {
		return strings.ReplaceAll(s, "${HOME}", homeDir)
	}
	c.Paths.Root = expand(c.Paths.Root)
	c.Paths.Artifacts = expand(c.Paths.Artifacts)
	c.Paths.Manifests = expand(c.Paths.Manifests)
	c.Keys.PrivateKeyPath = expand(c.Keys.PrivateKeyPath)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Chunking.Ceiling < 1 {
		errs = append(errs, fmt.Errorf("chunking.ceiling must be at least 1 byte"))
	}
	if c.Chunking.Target < 1 {
		errs = append(errs, fmt.Errorf("chunking.target must be at least 1 byte"))
	}
	if c.Chunking.Target >= c.Chunking.Ceiling {
		errs = append(errs, fmt.Errorf("chunking.target (%d) must be strictly less than chunking.ceiling (%d)",
			c.Chunking.Target, c.Chunking.Ceiling))
	}
	if _, err := c.CompressionTag(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CompressionLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}
	if c.CacheBytes < 0 {
		errs = append(errs, fmt.Errorf("cache_bytes must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CompressionTag resolves the configured compression algorithm name.
func (c *Config) CompressionTag() (transform.CompressionTag, error) {
	tag, err := transform.ParseCompressionTag(c.Transform.Compression)
	if err != nil {
		return 0, fmt.Errorf("transform.compression: %w", err)
	}
	return tag, nil
}

// CompressionLevel resolves the configured compression level name.
func (c *Config) CompressionLevel() (transform.Level, error) {
	switch c.Transform.Level {
	case "", "default":
		return transform.LevelDefault, nil
	case "fastest":
		return transform.LevelFastest, nil
	case "better":
		return transform.LevelBetter, nil
	case "best":
		return transform.LevelBest, nil
	default:
		return 0, fmt.Errorf("transform.level: unknown level %q (want default, fastest, better, or best)", c.Transform.Level)
	}
}
