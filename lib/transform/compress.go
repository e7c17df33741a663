// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression algorithm used for a
// chunk. The tag is recorded in the chunk's manifest record — it is
// required to reverse the transform, because incompressible chunks
// fall back to CompressionNone regardless of the configured
// algorithm.
type CompressionTag uint8

const (
	// CompressionNone indicates uncompressed data. Used for
	// already-compressed content (media, archives, random bytes)
	// where compression adds CPU cost without reducing size.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression. Fast with
	// moderate ratios; a good choice when encode throughput matters
	// more than stored size.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd indicates zstd compression. Better ratios for
	// text-like content at a configurable level. This is the default
	// algorithm.
	CompressionZstd CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a compression tag from its string
// representation (the form stored in manifests).
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler, so tags appear by
// name ("none", "lz4", "zstd") in JSON manifests and CBOR mirror
// streams.
func (tag CompressionTag) MarshalText() ([]byte, error) {
	if tag > CompressionZstd {
		return nil, fmt.Errorf("unknown compression tag: %d", tag)
	}
	return []byte(tag.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tag *CompressionTag) UnmarshalText(text []byte) error {
	parsed, err := ParseCompressionTag(string(text))
	if err != nil {
		return err
	}
	*tag = parsed
	return nil
}

// Level selects the zstd encoder effort. Levels map onto the zstd
// library's speed presets; LZ4 block compression has a single level
// and ignores this setting.
type Level int

const (
	// LevelDefault is a balanced ratio/CPU tradeoff (zstd level 3).
	LevelDefault Level = iota
	// LevelFastest favors throughput over ratio.
	LevelFastest
	// LevelBetter spends more CPU for a better ratio.
	LevelBetter
	// LevelBest is the slowest, highest-ratio setting.
	LevelBest
)

// zstdLevel maps a Level to the zstd library's encoder level.
func zstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// zstdEncoders holds one shared encoder per level, created lazily at
// package init. zstd.Encoder and zstd.Decoder are safe for concurrent
// use, so sharing avoids repeated initialization overhead.
var (
	zstdEncoders [4]*zstd.Encoder
	zstdDecoder  *zstd.Decoder
)

func init() {
	for _, level := range []Level{LevelDefault, LevelFastest, LevelBetter, LevelBest} {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			panic("transform: zstd encoder initialization failed: " + err.Error())
		}
		zstdEncoders[level] = encoder
	}

	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("transform: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible is returned by compression functions when the
// compressed output is not smaller than the input. The caller falls
// back to CompressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// IsIncompressible reports whether the error indicates that data
// could not be compressed smaller than its original size.
func IsIncompressible(err error) bool {
	return err == errIncompressible
}

// Compress compresses data using the specified algorithm. For
// CompressionNone, returns the input unchanged (no copy). Returns an
// incompressible error (see [IsIncompressible]) when the output would
// not be smaller than the input.
func Compress(data []byte, tag CompressionTag, level Level) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		return compressLZ4(data)

	case CompressionZstd:
		return compressZstd(data, level)

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// Decompress reverses Compress. The uncompressedSize must match the
// original data length exactly — this is verified and a mismatch
// returns an error.
func Decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed chunk: size %d does not match expected %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil

	case CompressionLZ4:
		return decompressLZ4(compressed, uncompressedSize)

	case CompressionZstd:
		return decompressZstd(compressed, uncompressedSize)

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// CompressAuto compresses data with the requested algorithm and falls
// back to CompressionNone when the data is incompressible. Returns
// the (possibly original) bytes and the tag actually used — the tag
// must be recorded so the decode path applies the right inverse.
func CompressAuto(data []byte, tag CompressionTag, level Level) ([]byte, CompressionTag, error) {
	compressed, err := Compress(data, tag, level)
	if err != nil {
		if IsIncompressible(err) {
			return data, CompressionNone, nil
		}
		return nil, 0, err
	}
	return compressed, tag, nil
}

// LZ4 compression: block-mode LZ4.

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. We also check whether the compressed output is
	// actually smaller than the input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte, level Level) ([]byte, error) {
	if level < LevelDefault || level > LevelBest {
		return nil, fmt.Errorf("invalid compression level: %d", level)
	}
	compressed := zstdEncoders[level].EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedSize)
	result, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
