// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import (
	"fmt"
	"sort"
	"strings"
)

// Authenticatable is implemented once per token kind. Authorization code
// reads Authenticated and Authorities; the only mutations it may make are
// SetAuthenticated(false), EraseCredentials and attribute updates.
type Authenticatable interface {
	Kind() string

	Principal() Principal
	SetPrincipal(p Principal) error

	Authorities() AuthoritySet

	Authenticated() bool
	SetAuthenticated(authenticated bool) error

	Attributes() map[string]any
	SetAttributes(attributes map[string]any)
	HasAttribute(name string) bool
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any)

	Credentials() any
	EraseCredentials()

	Equal(other Authenticatable) bool
	HashKey() string

	State() State
	Restore(st State) error

	String() string
}

// Base holds the envelope shared by every token kind. Kinds embed it and
// chain to it from EraseCredentials, State and Restore.
//
// A Base is owned by one request at a time and is not safe for concurrent
// mutation.
type Base struct {
	principal     Principal
	authorities   AuthoritySet
	authenticated bool
	attributes    map[string]any
}

// NewBase stores the principal and the normalized authorities. The token is
// authenticated iff at least one authority was supplied; this is the only
// way a token ever becomes authenticated.
func NewBase(principal Principal, authorities ...Authority) (Base, error) {
	set := NewAuthoritySet(authorities...)
	b := Base{
		authorities:   set,
		authenticated: set.Len() > 0,
		attributes:    map[string]any{},
	}
	if principal.IsZero() {
		return Base{}, fmt.Errorf("%w: principal must not be empty", ErrInvalidArgument)
	}
	b.principal = principal
	return b, nil
}

func (b *Base) Principal() Principal {
	return b.principal
}

// SetPrincipal replaces the principal. Switching to a different identity
// drops trust.
func (b *Base) SetPrincipal(p Principal) error {
	if p.IsZero() {
		return fmt.Errorf("%w: principal must not be empty", ErrInvalidArgument)
	}
	changed := b.principal.Identifier() != p.Identifier()
	b.principal = p
	if changed {
		b.authenticated = false
	}
	return nil
}

func (b *Base) Authorities() AuthoritySet {
	return b.authorities
}

func (b *Base) Authenticated() bool {
	return b.authenticated
}

// SetAuthenticated can only lower trust. Passing true always fails.
func (b *Base) SetAuthenticated(authenticated bool) error {
	if authenticated {
		return fmt.Errorf("%w: cannot set token to trusted after instantiation", ErrIllegalState)
	}
	b.authenticated = false
	return nil
}

// Attributes returns a copy of the attribute bag.
func (b *Base) Attributes() map[string]any {
	out := make(map[string]any, len(b.attributes))
	for k, v := range b.attributes {
		out[k] = v
	}
	return out
}

func (b *Base) SetAttributes(attributes map[string]any) {
	b.attributes = make(map[string]any, len(attributes))
	for k, v := range attributes {
		b.attributes[k] = v
	}
}

func (b *Base) HasAttribute(name string) bool {
	_, ok := b.attributes[name]
	return ok
}

func (b *Base) Attribute(name string) (any, bool) {
	v, ok := b.attributes[name]
	return v, ok
}

func (b *Base) SetAttribute(name string, value any) {
	if b.attributes == nil {
		b.attributes = map[string]any{}
	}
	b.attributes[name] = value
}

// EraseCredentials is the bottom of the erasure chain. Base holds nothing
// sensitive.
func (b *Base) EraseCredentials() {}

// EqualBase compares the envelope fields of two tokens: trust flag,
// principal identifier and authorities as an unordered set.
func (b *Base) EqualBase(other Authenticatable) bool {
	if other == nil {
		return false
	}
	return b.authenticated == other.Authenticated() &&
		b.principal.Identifier() == other.Principal().Identifier() &&
		b.authorities.Equal(other.Authorities())
}

// HashKeyBase renders the envelope fields compared by EqualBase.
func (b *Base) HashKeyBase() string {
	ids := b.authorities.Strings()
	sort.Strings(ids)
	return fmt.Sprintf("%q|%t|%q", b.principal.Identifier(), b.authenticated, strings.Join(ids, ","))
}

// State captures the envelope. Kinds push their own layers in front of it.
func (b *Base) State() State {
	return State{
		Version: StateVersion,
		Base: BaseState{
			Principal:     b.principal.Identifier(),
			Authorities:   b.authorities.Strings(),
			Authenticated: b.authenticated,
			Attributes:    b.Attributes(),
		},
	}
}

// Restore rebuilds the envelope into a blank Base. Every kind layer must
// already have been popped off st. Restoring into a constructed token fails
// with ErrIllegalState and leaves it unchanged.
func (b *Base) Restore(st State) error {
	restored, err := b.restored(st)
	if err != nil {
		return err
	}
	*b = restored
	return nil
}

// restored validates st and returns the envelope it describes without
// touching b.
func (b *Base) restored(st State) (Base, error) {
	if !b.principal.IsZero() {
		return Base{}, fmt.Errorf("%w: restore into constructed token for %q", ErrIllegalState, b.principal.Identifier())
	}
	if st.Version != StateVersion {
		return Base{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, st.Version)
	}
	if len(st.Layers) != 0 {
		return Base{}, fmt.Errorf("%w: %d unconsumed layers, first %q", ErrMalformedState, len(st.Layers), st.Layers[0].Name)
	}
	if st.Base.Principal == "" {
		return Base{}, fmt.Errorf("%w: empty principal", ErrMalformedState)
	}
	r := Base{
		principal:     Name(st.Base.Principal),
		authorities:   authoritiesFromStrings(st.Base.Authorities),
		authenticated: st.Base.Authenticated,
	}
	r.SetAttributes(st.Base.Attributes)
	return r, nil
}

func (b *Base) describe(kind string) string {
	return fmt.Sprintf("%s(user=%q, authenticated=%t, authorities=%q)",
		kind, b.principal.Identifier(), b.authenticated, strings.Join(b.authorities.Strings(), ", "))
}
