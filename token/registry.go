// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "fmt"

var kinds = map[string]func() Authenticatable{}

// Register makes a token kind restorable by Rebuild. blank must return a
// fresh zero instance each call.
//
// All registrations must be completed before any Rebuild calls are made.
// Registering an empty or duplicate name panics.
func Register(kind string, blank func() Authenticatable) {
	if kind == "" {
		panic("token: empty kind name")
	}
	if _, dup := kinds[kind]; dup {
		panic("token: kind " + kind + " registered twice")
	}
	kinds[kind] = blank
}

// Blank returns an empty instance of the named kind.
func Blank(kind string) (Authenticatable, error) {
	blank, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return blank(), nil
}

// Rebuild constructs a blank instance of st.Kind and restores st into it.
func Rebuild(st State) (Authenticatable, error) {
	t, err := Blank(st.Kind)
	if err != nil {
		return nil, err
	}
	if err := t.Restore(st); err != nil {
		return nil, err
	}
	return t, nil
}
