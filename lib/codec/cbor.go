// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module-wide CBOR configuration used for
// wire messages. Encoding is Core Deterministic Encoding so the same
// logical message always produces identical bytes; decoding accepts
// standard CBOR and ignores unknown fields for forward compatibility.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler (transform.Hash,
	// transform.CompressionTag) serialize as CBOR text strings via
	// MarshalText, matching their JSON representation. Without this a
	// hash would serialize as a 32-element integer array.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any, pick map[string]any rather
		// than the CBOR default map[interface{}]interface{}, which is
		// incompatible with encoding/json and most Go code. Struct
		// field decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirror of the TextMarshaler setting above, for round-trip
		// correctness.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
