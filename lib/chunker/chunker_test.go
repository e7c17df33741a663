// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package chunker

import "testing"

func TestPlanSingleRange(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
	}{
		{"empty", 0},
		{"one byte", 1},
		{"under ceiling", 99},
		{"exactly ceiling", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, chunked, err := Plan(tt.totalSize, 100, 10)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if chunked {
				t.Error("size within ceiling should not be chunked")
			}
			if len(ranges) != 1 {
				t.Fatalf("got %d ranges, want 1", len(ranges))
			}
			if ranges[0].Offset != 0 || ranges[0].Length != tt.totalSize {
				t.Errorf("got range (%d, %d), want (0, %d)",
					ranges[0].Offset, ranges[0].Length, tt.totalSize)
			}
		})
	}
}

func TestPlanChunked(t *testing.T) {
	tests := []struct {
		name        string
		totalSize   int64
		ceiling     int64
		target      int64
		wantCount   int
		wantLastLen int64
	}{
		{"one over ceiling", 101, 100, 10, 11, 1},
		{"exact multiple", 200, 100, 10, 20, 10},
		{"with remainder", 205, 100, 10, 21, 5},
		{"deployment sizes", 25 * 1024 * 1024, 20 * 1024 * 1024, 10 * 1024 * 1024, 3, 5 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges, chunked, err := Plan(tt.totalSize, tt.ceiling, tt.target)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if !chunked {
				t.Error("size over ceiling should be chunked")
			}
			if len(ranges) != tt.wantCount {
				t.Fatalf("got %d ranges, want %d", len(ranges), tt.wantCount)
			}

			// Ranges must tile [0, totalSize) exactly, in order.
			var offset int64
			for i, r := range ranges {
				if r.Offset != offset {
					t.Errorf("range %d starts at %d, want %d", i, r.Offset, offset)
				}
				if i < len(ranges)-1 && r.Length != tt.target {
					t.Errorf("range %d has length %d, want target %d", i, r.Length, tt.target)
				}
				offset = r.End()
			}
			if offset != tt.totalSize {
				t.Errorf("ranges cover %d bytes, want %d", offset, tt.totalSize)
			}
			if last := ranges[len(ranges)-1].Length; last != tt.wantLastLen {
				t.Errorf("final range has length %d, want %d", last, tt.wantLastLen)
			}
		})
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		ceiling   int64
		target    int64
	}{
		{"negative size", -1, 100, 10},
		{"zero ceiling", 50, 0, 10},
		{"negative ceiling", 50, -5, 10},
		{"zero target", 50, 100, 0},
		{"target equals ceiling", 50, 100, 100},
		{"target above ceiling", 50, 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Plan(tt.totalSize, tt.ceiling, tt.target); err == nil {
				t.Errorf("Plan(%d, %d, %d) should fail", tt.totalSize, tt.ceiling, tt.target)
			}
		})
	}
}
