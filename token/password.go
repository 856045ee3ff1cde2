// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "fmt"

const (
	KindUsernamePassword = "username_password"

	passwordLayer = "password"
)

func init() {
	Register(KindUsernamePassword, func() Authenticatable { return &UsernamePasswordToken{} })
}

// UsernamePasswordToken is issued for a username and password login.
type UsernamePasswordToken struct {
	Base
	credentialPayload
}

// NewUsernamePasswordToken builds a password token. Passing authorities
// marks the token authenticated, so a provider must only do that after it
// has verified credentials.
func NewUsernamePasswordToken(principal Principal, credentials any, sourceKey string, authorities ...Authority) (*UsernamePasswordToken, error) {
	base, err := NewBase(principal, authorities...)
	if err != nil {
		return nil, err
	}
	payload, err := newCredentialPayload(credentials, sourceKey)
	if err != nil {
		return nil, err
	}
	return &UsernamePasswordToken{Base: base, credentialPayload: payload}, nil
}

func (t *UsernamePasswordToken) Kind() string {
	return KindUsernamePassword
}

func (t *UsernamePasswordToken) EraseCredentials() {
	t.Base.EraseCredentials()
	t.erase()
}

func (t *UsernamePasswordToken) Equal(other Authenticatable) bool {
	o, ok := other.(*UsernamePasswordToken)
	if !ok || o == nil {
		return false
	}
	return t.EqualBase(o) && t.equal(&o.credentialPayload)
}

func (t *UsernamePasswordToken) HashKey() string {
	return fmt.Sprintf("%s|%q|%s", KindUsernamePassword, t.sourceKey, t.HashKeyBase())
}

func (t *UsernamePasswordToken) State() State {
	st := t.Base.State().Push(t.layer(passwordLayer))
	st.Kind = KindUsernamePassword
	return st
}

func (t *UsernamePasswordToken) Restore(st State) error {
	l, rest, err := st.Pop(passwordLayer)
	if err != nil {
		return err
	}
	payload, err := decodeCredentialPayload(l)
	if err != nil {
		return err
	}
	base, err := t.Base.restored(rest)
	if err != nil {
		return err
	}
	t.Base, t.credentialPayload = base, payload
	return nil
}

func (t *UsernamePasswordToken) String() string {
	return t.describe("UsernamePasswordToken")
}

var _ Authenticatable = (*UsernamePasswordToken)(nil)
