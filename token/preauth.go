// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "fmt"

const (
	KindPreAuthenticated = "pre_authenticated"

	preauthLayer = "preauth"
)

func init() {
	Register(KindPreAuthenticated, func() Authenticatable { return &PreAuthenticatedToken{} })
}

// PreAuthenticatedToken represents an identity asserted by something in
// front of us, such as an SSO proxy. Credentials hold whatever the upstream
// passed along as proof, if anything.
type PreAuthenticatedToken struct {
	Base
	credentialPayload
}

func NewPreAuthenticatedToken(principal Principal, credentials any, sourceKey string, authorities ...Authority) (*PreAuthenticatedToken, error) {
	base, err := NewBase(principal, authorities...)
	if err != nil {
		return nil, err
	}
	payload, err := newCredentialPayload(credentials, sourceKey)
	if err != nil {
		return nil, err
	}
	return &PreAuthenticatedToken{Base: base, credentialPayload: payload}, nil
}

func (t *PreAuthenticatedToken) Kind() string {
	return KindPreAuthenticated
}

func (t *PreAuthenticatedToken) EraseCredentials() {
	t.Base.EraseCredentials()
	t.erase()
}

func (t *PreAuthenticatedToken) Equal(other Authenticatable) bool {
	o, ok := other.(*PreAuthenticatedToken)
	if !ok || o == nil {
		return false
	}
	return t.EqualBase(o) && t.equal(&o.credentialPayload)
}

func (t *PreAuthenticatedToken) HashKey() string {
	return fmt.Sprintf("%s|%q|%s", KindPreAuthenticated, t.sourceKey, t.HashKeyBase())
}

func (t *PreAuthenticatedToken) State() State {
	st := t.Base.State().Push(t.layer(preauthLayer))
	st.Kind = KindPreAuthenticated
	return st
}

func (t *PreAuthenticatedToken) Restore(st State) error {
	l, rest, err := st.Pop(preauthLayer)
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

func (t *PreAuthenticatedToken) String() string {
	return t.describe("PreAuthenticatedToken")
}

var _ Authenticatable = (*PreAuthenticatedToken)(nil)
