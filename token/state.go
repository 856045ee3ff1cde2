// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "fmt"

// StateVersion is written into every State and checked on Restore.
const StateVersion = 1

// State is the serializable envelope of a token. Each kind contributes one
// named Layer; layers are ordered innermost kind first and the base
// envelope always comes last.
type State struct {
	Version int       `json:"version" cbor:"version"`
	Kind    string    `json:"kind" cbor:"kind"`
	Layers  []Layer   `json:"layers" cbor:"layers"`
	Base    BaseState `json:"base" cbor:"base"`
}

type Layer struct {
	Name   string         `json:"name" cbor:"name"`
	Fields map[string]any `json:"fields" cbor:"fields"`
}

type BaseState struct {
	Principal     string         `json:"principal" cbor:"principal"`
	Authorities   []string       `json:"authorities" cbor:"authorities"`
	Authenticated bool           `json:"authenticated" cbor:"authenticated"`
	Attributes    map[string]any `json:"attributes" cbor:"attributes"`
}

// Push returns a copy of s with l placed in front of the existing layers.
func (s State) Push(l Layer) State {
	layers := make([]Layer, 0, len(s.Layers)+1)
	layers = append(layers, l)
	s.Layers = append(layers, s.Layers...)
	return s
}

// Pop removes the leading layer, which must be called name, and returns it
// with the remaining state.
func (s State) Pop(name string) (Layer, State, error) {
	if len(s.Layers) == 0 {
		return Layer{}, s, fmt.Errorf("%w: missing %q layer", ErrMalformedState, name)
	}
	head := s.Layers[0]
	if head.Name != name {
		return Layer{}, s, fmt.Errorf("%w: expected %q layer, found %q", ErrMalformedState, name, head.Name)
	}
	s.Layers = s.Layers[1:]
	return head, s, nil
}

// Value returns a field that must be present, though it may be nil.
func (l Layer) Value(key string) (any, error) {
	v, ok := l.Fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q layer has no %q field", ErrMalformedState, l.Name, key)
	}
	return v, nil
}

// StringField returns a field that must be a non-empty string.
func (l Layer) StringField(key string) (string, error) {
	v, err := l.Value(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q layer field %q is not a non-empty string", ErrMalformedState, l.Name, key)
	}
	return s, nil
}
