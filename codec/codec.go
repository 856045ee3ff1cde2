// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package codec

import (
	"errors"
	"fmt"

	"github.com/VA7DBI/tokenguard/token"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Codec turns a token State into bytes for a session store and back.
type Codec interface {
	Name() string
	Encode(st token.State) ([]byte, error)
	Decode(data []byte) (token.State, error)
}

// New returns the codec registered under name. An empty name selects JSON.
func New(name string) (Codec, error) {
	switch name {
	case "", JSONName:
		return JSON{}, nil
	case CBORName:
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// EncodeToken captures t's state and encodes it.
func EncodeToken(c Codec, t token.Authenticatable) ([]byte, error) {
	data, err := c.Encode(t.State())
	if err != nil {
		return nil, fmt.Errorf("%s encode failed: %w", c.Name(), err)
	}
	return data, nil
}

// DecodeToken decodes data and rebuilds the token kind it names.
func DecodeToken(c Codec, data []byte) (token.Authenticatable, error) {
	st, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s decode failed: %w", c.Name(), err)
	}
	return token.Rebuild(st)
}
