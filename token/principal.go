// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "reflect"

// PrincipalRecord is a handle to a richer user record, such as one returned
// by a user lookup.
type PrincipalRecord interface {
	Identifier() string
}

// Principal is either a plain name or a PrincipalRecord. The zero value
// is neither and is rejected by token constructors.
type Principal struct {
	name   string
	record PrincipalRecord
}

// Name returns a principal that is only a textual identifier.
func Name(name string) Principal {
	return Principal{name: name}
}

// Record returns a principal backed by a user record. A nil record, typed
// or not, yields the zero Principal.
func Record(r PrincipalRecord) Principal {
	if isNilRecord(r) {
		return Principal{}
	}
	return Principal{record: r}
}

func isNilRecord(r PrincipalRecord) bool {
	if r == nil {
		return true
	}
	switch v := reflect.ValueOf(r); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Identifier resolves the canonical identifier used for equality and logs.
func (p Principal) Identifier() string {
	if p.record != nil {
		return p.record.Identifier()
	}
	return p.name
}

// Record returns the backing record, if this principal has one.
func (p Principal) Record() (PrincipalRecord, bool) {
	return p.record, p.record != nil
}

func (p Principal) IsZero() bool {
	return p.Identifier() == ""
}

func (p Principal) String() string {
	return p.Identifier()
}
