// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package codec

import (
	"reflect"

	"github.com/VA7DBI/tokenguard/token"
	"github.com/fxamacker/cbor/v2"
)

const CBORName = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core Deterministic Encoding: the same state always yields the same
	// bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Attribute bags and layer fields are map[string]any; nested maps
		// must decode the same way rather than as map[interface{}]interface{}.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR is a compact binary codec. Byte-slice credentials survive it
// unchanged.
type CBOR struct{}

func (CBOR) Name() string {
	return CBORName
}

func (CBOR) Encode(st token.State) ([]byte, error) {
	return encMode.Marshal(st)
}

func (CBOR) Decode(data []byte) (token.State, error) {
	var st token.State
	err := decMode.Unmarshal(data, &st)
	return st, err
}
