// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunker decides how a file is split before the transform
// pipeline runs. Splitting is fixed-size: the planner produces
// target-sized ranges, never content-defined boundaries, because the
// only constraint being served is the external artifact size ceiling,
// not deduplication.
package chunker

import "fmt"

// Default sizes from the original deployment. Both are configuration
// inputs, not protocol constants — a vault may be created with any
// ceiling/target pair that leaves encryption headroom.
const (
	// DefaultCeiling is the default maximum artifact size (100 MiB),
	// matching the host-imposed object size limit the system was
	// built around.
	DefaultCeiling = 100 * 1024 * 1024

	// DefaultTarget is the default nominal chunk size (10 MiB). Kept
	// well under the ceiling so that worst-case compression and
	// encryption expansion cannot push an artifact over the limit.
	DefaultTarget = 10 * 1024 * 1024
)

// Range is a contiguous byte range of the source file, to be encoded
// as one chunk artifact.
type Range struct {
	// Offset is the range's starting position in the source file.
	Offset int64

	// Length is the range's size in bytes.
	Length int64
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 {
	return r.Offset + r.Length
}

// Plan computes the split for a file of totalSize bytes under the
// given ceiling and nominal target chunk size.
//
//   - totalSize ≤ ceiling: a single range (0, totalSize) — the file
//     is stored as one artifact without chunk bookkeeping. This
//     includes the empty file.
//   - otherwise: ceil(totalSize/target) ranges of target bytes each,
//     with the final range holding the remainder.
//
// The returned ranges cover [0, totalSize) exactly once, in order,
// with no overlaps. chunked reports whether the chunked form applies.
//
// The plan does not guarantee the size bound by itself: compression
// may be ineffective and encryption always adds overhead, so the
// encoder re-checks every produced ciphertext against the ceiling
// after the fact. The planner's only obligation is target < ceiling,
// leaving headroom for that expansion.
func Plan(totalSize, ceiling, target int64) (ranges []Range, chunked bool, err error) {
	if totalSize < 0 {
		return nil, false, fmt.Errorf("total size %d is negative", totalSize)
	}
	if ceiling < 1 {
		return nil, false, fmt.Errorf("ceiling %d is invalid (minimum 1)", ceiling)
	}
	if target < 1 {
		return nil, false, fmt.Errorf("target chunk size %d is invalid (minimum 1)", target)
	}
	if target >= ceiling {
		return nil, false, fmt.Errorf("target chunk size %d must be below the ceiling %d to leave encryption headroom",
			target, ceiling)
	}

	if totalSize <= ceiling {
		return []Range{{Offset: 0, Length: totalSize}}, false, nil
	}

	count := totalSize / target
	if totalSize%target != 0 {
		count++
	}

	ranges = make([]Range, 0, count)
	for offset := int64(0); offset < totalSize; offset += target {
		length := target
		if remaining := totalSize - offset; remaining < length {
			length = remaining
		}
		ranges = append(ranges, Range{Offset: offset, Length: length})
	}
	return ranges, true, nil
}
