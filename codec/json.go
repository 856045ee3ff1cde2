// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package codec

import (
	"github.com/VA7DBI/tokenguard/token"
	"github.com/goccy/go-json"
)

const JSONName = "json"

// JSON is the default codec. Opaque values come back as their JSON
// equivalents, so numeric credentials decode as float64.
type JSON struct{}

func (JSON) Name() string {
	return JSONName
}

func (JSON) Encode(st token.State) ([]byte, error) {
	return json.Marshal(st)
}

func (JSON) Decode(data []byte) (token.State, error) {
	var st token.State
	err := json.Unmarshal(data, &st)
	return st, err
}
