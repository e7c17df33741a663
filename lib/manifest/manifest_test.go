// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"strings"
	"testing"
	"time"

	"github.com/chunkvault/chunkvault/lib/transform"
)

func validSingle() *Manifest {
	return &Manifest{
		OriginalName:    "report.pdf",
		OriginalSize:    4096,
		ChunkSizeTarget: 10 * 1024 * 1024,
		IsChunked:       false,
		Single: &SingleArtifact{
			Location:       "aabbccddeeff00112233445566778899",
			CiphertextSize: 4300,
			PlaintextHash:  transform.HashPlaintext([]byte("report")),
			Compression:    transform.CompressionZstd,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func validChunked() *Manifest {
	return &Manifest{
		OriginalName:    "dataset.bin",
		OriginalSize:    2500,
		ChunkSizeTarget: 1000,
		IsChunked:       true,
		Chunks: []ChunkRecord{
			{Index: 0, Location: "00000000000000000000000000000001", CiphertextSize: 1100, PlaintextSize: 1000,
				PlaintextHash: transform.HashPlaintext([]byte("a")), Compression: transform.CompressionZstd},
			{Index: 1, Location: "00000000000000000000000000000002", CiphertextSize: 1100, PlaintextSize: 1000,
				PlaintextHash: transform.HashPlaintext([]byte("b")), Compression: transform.CompressionNone},
			{Index: 2, Location: "00000000000000000000000000000003", CiphertextSize: 700, PlaintextSize: 500,
				PlaintextHash: transform.HashPlaintext([]byte("c")), Compression: transform.CompressionLZ4},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validSingle().Validate(); err != nil {
		t.Errorf("valid unchunked manifest rejected: %v", err)
	}
	if err := validChunked().Validate(); err != nil {
		t.Errorf("valid chunked manifest rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Manifest)
		base    func() *Manifest
		wantErr string
	}{
		{
			name:    "empty name",
			base:    validSingle,
			mutate:  func(m *Manifest) { m.OriginalName = "" },
			wantErr: "name is empty",
		},
		{
			name:    "negative size",
			base:    validSingle,
			mutate:  func(m *Manifest) { m.OriginalSize = -1 },
			wantErr: "negative",
		},
		{
			name:    "unchunked without artifact",
			base:    validSingle,
			mutate:  func(m *Manifest) { m.Single = nil },
			wantErr: "no artifact record",
		},
		{
			name: "unchunked with chunk list",
			base: validSingle,
			mutate: func(m *Manifest) {
				m.Chunks = validChunked().Chunks
			},
			wantErr: "chunk records",
		},
		{
			name: "chunked with single record",
			base: validChunked,
			mutate: func(m *Manifest) {
				m.Single = validSingle().Single
			},
			wantErr: "single-artifact record",
		},
		{
			name:    "chunked without chunks",
			base:    validChunked,
			mutate:  func(m *Manifest) { m.Chunks = nil },
			wantErr: "no chunks",
		},
		{
			name: "duplicate index",
			base: validChunked,
			mutate: func(m *Manifest) {
				m.Chunks[1].Index = 0
			},
			wantErr: "dense and ascending",
		},
		{
			name: "skipped index",
			base: validChunked,
			mutate: func(m *Manifest) {
				m.Chunks[2].Index = 5
			},
			wantErr: "dense and ascending",
		},
		{
			name: "descending order",
			base: validChunked,
			mutate: func(m *Manifest) {
				m.Chunks[0].Index, m.Chunks[2].Index = 2, 0
			},
			wantErr: "dense and ascending",
		},
		{
			name:    "empty chunk location",
			base:    validChunked,
			mutate:  func(m *Manifest) { m.Chunks[1].Location = "" },
			wantErr: "location is empty",
		},
		{
			name:    "zero ciphertext size",
			base:    validChunked,
			mutate:  func(m *Manifest) { m.Chunks[0].CiphertextSize = 0 },
			wantErr: "ciphertext size",
		},
		{
			name: "plaintext sizes disagree with total",
			base: validChunked,
			mutate: func(m *Manifest) {
				m.Chunks[2].PlaintextSize = 9999
			},
			wantErr: "sum to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.base()
			tt.mutate(m)
			err := m.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecordsSynthesizesSingle(t *testing.T) {
	m := validSingle()
	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	record := records[0]
	if record.Index != 0 {
		t.Errorf("synthesized record has index %d, want 0", record.Index)
	}
	if record.Location != m.Single.Location {
		t.Errorf("synthesized record location %q, want %q", record.Location, m.Single.Location)
	}
	if record.PlaintextSize != m.OriginalSize {
		t.Errorf("synthesized record plaintext size %d, want %d", record.PlaintextSize, m.OriginalSize)
	}

	if m.NumChunks() != 1 {
		t.Errorf("NumChunks() = %d, want 1", m.NumChunks())
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := validChunked()

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.OriginalName != original.OriginalName {
		t.Errorf("name %q, want %q", restored.OriginalName, original.OriginalName)
	}
	if restored.OriginalSize != original.OriginalSize {
		t.Errorf("size %d, want %d", restored.OriginalSize, original.OriginalSize)
	}
	if len(restored.Chunks) != len(original.Chunks) {
		t.Fatalf("got %d chunks, want %d", len(restored.Chunks), len(original.Chunks))
	}
	for i := range original.Chunks {
		if restored.Chunks[i] != original.Chunks[i] {
			t.Errorf("chunk %d differs after round trip", i)
		}
	}
}

func TestUnmarshalRejectsCorruption(t *testing.T) {
	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := Unmarshal([]byte("{not json")); err == nil {
			t.Error("Unmarshal of malformed JSON should fail")
		}
	})

	t.Run("structurally invalid", func(t *testing.T) {
		m := validChunked()
		m.Chunks[1].Index = 7
		data, err := Marshal(m)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if _, err := Unmarshal(data); err == nil {
			t.Error("Unmarshal of inconsistent manifest should fail")
		}
	})
}
