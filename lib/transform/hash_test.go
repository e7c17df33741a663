// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"encoding/json"
	"testing"
)

func TestHashPlaintextDeterministic(t *testing.T) {
	data := []byte("some chunk content")

	first := HashPlaintext(data)
	second := HashPlaintext(data)
	if first != second {
		t.Error("same input produced different hashes")
	}
}

func TestHashPlaintextDistinguishes(t *testing.T) {
	a := HashPlaintext([]byte("chunk a"))
	b := HashPlaintext([]byte("chunk b"))
	if a == b {
		t.Error("different inputs produced the same hash")
	}

	empty := HashPlaintext(nil)
	if empty == a {
		t.Error("empty input collided with non-empty input")
	}
}

func TestHashFormatParse(t *testing.T) {
	hash := HashPlaintext([]byte("round trip me"))

	formatted := FormatHash(hash)
	if len(formatted) != 64 {
		t.Errorf("formatted hash is %d characters, want 64", len(formatted))
	}

	parsed, err := ParseHash(formatted)
	if err != nil {
		t.Fatalf("ParseHash failed: %v", err)
	}
	if parsed != hash {
		t.Error("parse did not restore the original hash")
	}
}

func TestParseHashRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "abcd"},
		{"not hex", "zz" + FormatHash(Hash{})[2:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHash(tt.input); err == nil {
				t.Errorf("ParseHash(%q) should fail", tt.input)
			}
		})
	}
}

func TestHashJSONRoundTrip(t *testing.T) {
	hash := HashPlaintext([]byte("serialized"))

	encoded, err := json.Marshal(hash)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Hash
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != hash {
		t.Error("JSON round trip did not restore the hash")
	}
}
