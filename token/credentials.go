// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import (
	"fmt"
	"reflect"
)

const (
	fieldCredentials = "credentials"
	fieldSourceKey   = "source_key"
)

// credentialPayload is the kind-specific part shared by tokens that carry
// erasable proof plus the key of the provider that issued them.
type credentialPayload struct {
	credentials any
	sourceKey   string
}

func newCredentialPayload(credentials any, sourceKey string) (credentialPayload, error) {
	if sourceKey == "" {
		return credentialPayload{}, fmt.Errorf("%w: source key must not be empty", ErrInvalidArgument)
	}
	return credentialPayload{credentials: credentials, sourceKey: sourceKey}, nil
}

// Credentials returns the proof offered for this token, or nil once erased.
func (p *credentialPayload) Credentials() any {
	return p.credentials
}

// SourceKey names the authentication mechanism that issued the token.
func (p *credentialPayload) SourceKey() string {
	return p.sourceKey
}

func (p *credentialPayload) erase() {
	p.credentials = nil
}

func (p *credentialPayload) equal(o *credentialPayload) bool {
	return p.sourceKey == o.sourceKey && reflect.DeepEqual(p.credentials, o.credentials)
}

func (p *credentialPayload) layer(name string) Layer {
	return Layer{
		Name: name,
		Fields: map[string]any{
			fieldCredentials: p.credentials,
			fieldSourceKey:   p.sourceKey,
		},
	}
}

func decodeCredentialPayload(l Layer) (credentialPayload, error) {
	credentials, err := l.Value(fieldCredentials)
	if err != nil {
		return credentialPayload{}, err
	}
	sourceKey, err := l.StringField(fieldSourceKey)
	if err != nil {
		return credentialPayload{}, err
	}
	return credentialPayload{credentials: credentials, sourceKey: sourceKey}, nil
}
