// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFromPath reads a secret from a file path, or from stdin if path
// is "-". The returned buffer is mmap-backed (locked into RAM,
// excluded from core dumps) and must be closed by the caller.
//
// The secret is the first non-empty line that does not start with
// "#", trimmed of surrounding whitespace, so identity files in the
// age-keygen layout (a "# public key:" comment above the key) load
// directly. Returns an error if no such line exists.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte

	if path == "-" {
		var err error
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var secret []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		secret = trimmed
		break
	}
	if secret == nil {
		Zero(data)
		return nil, fmt.Errorf("secret is empty")
	}

	// NewFromBytes copies into mmap-backed memory and zeros secret.
	buffer, err := NewFromBytes(secret)
	// Zero whatever the line split left behind.
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
