// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernamePasswordTokenConstruction(t *testing.T) {
	t.Run("AuthoritiesMeanAuthenticated", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main", Roles("ROLE_USER")...)
		require.NoError(t, err)
		assert.True(t, tok.Authenticated())
		assert.Equal(t, "alice", tok.Principal().Identifier())
		assert.Equal(t, "s3cret", tok.Credentials())
		assert.Equal(t, "main", tok.SourceKey())
		assert.Equal(t, KindUsernamePassword, tok.Kind())
	})

	t.Run("NoAuthoritiesMeansUnauthenticated", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main")
		require.NoError(t, err)
		assert.False(t, tok.Authenticated())
	})

	t.Run("TrustIgnoresCredentials", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), nil, "main", Roles("ROLE_USER")...)
		require.NoError(t, err)
		assert.True(t, tok.Authenticated())
	})

	t.Run("EmptySourceKey", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Nil(t, tok)
	})

	t.Run("EmptyPrincipal", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name(""), "s3cret", "main", Roles("ROLE_USER")...)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Nil(t, tok)
	})

	t.Run("DuplicateAuthorities", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), nil, "main", Roles("ROLE_A", "ROLE_B", "ROLE_A")...)
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_A", "ROLE_B"}, tok.Authorities().Strings())
		assert.True(t, tok.Authorities().Contains("ROLE_A"))
	})
}

func TestTrustMonotonicity(t *testing.T) {
	t.Run("CannotRaiseUnauthenticated", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main")
		require.NoError(t, err)
		assert.False(t, tok.Authenticated())

		err = tok.SetAuthenticated(true)
		assert.ErrorIs(t, err, ErrIllegalState)
		assert.False(t, tok.Authenticated())

		assert.NoError(t, tok.SetAuthenticated(false))
		assert.False(t, tok.Authenticated())
	})

	t.Run("DowngradeOnly", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main", Roles("ROLE_USER")...)
		require.NoError(t, err)
		require.True(t, tok.Authenticated())

		assert.NoError(t, tok.SetAuthenticated(false))
		assert.False(t, tok.Authenticated())

		assert.ErrorIs(t, tok.SetAuthenticated(true), ErrIllegalState)
		assert.False(t, tok.Authenticated())
	})

	t.Run("RaiseRejectedWhileAuthenticated", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), nil, "main", Roles("ROLE_USER")...)
		require.NoError(t, err)
		assert.ErrorIs(t, tok.SetAuthenticated(true), ErrIllegalState)
		assert.True(t, tok.Authenticated())
	})

	t.Run("PrincipalSwitchDropsTrust", func(t *testing.T) {
		tok, err := NewUsernamePasswordToken(Name("alice"), nil, "main", Roles("ROLE_USER")...)
		require.NoError(t, err)

		require.NoError(t, tok.SetPrincipal(Record(&account{email: "alice"})))
		assert.True(t, tok.Authenticated(), "same identifier keeps trust")

		require.NoError(t, tok.SetPrincipal(Name("mallory")))
		assert.False(t, tok.Authenticated())
		assert.Equal(t, "mallory", tok.Principal().Identifier())

		assert.ErrorIs(t, tok.SetPrincipal(Principal{}), ErrInvalidArgument)
		assert.Equal(t, "mallory", tok.Principal().Identifier())
	})
}

func TestEraseCredentials(t *testing.T) {
	tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main", Roles("ROLE_USER")...)
	require.NoError(t, err)

	tok.EraseCredentials()
	assert.Nil(t, tok.Credentials())
	assert.Equal(t, "main", tok.SourceKey())
	assert.True(t, tok.Authenticated())

	before := tok.State()
	tok.EraseCredentials()
	assert.Nil(t, tok.Credentials())
	assert.Equal(t, before, tok.State())
}

func TestEquality(t *testing.T) {
	mk := func(name string, creds any, key string, roles ...string) *UsernamePasswordToken {
		tok, err := NewUsernamePasswordToken(Name(name), creds, key, Roles(roles...)...)
		require.NoError(t, err)
		return tok
	}

	a := mk("alice", nil, "main", "ROLE_A", "ROLE_B")
	b := mk("alice", nil, "main", "ROLE_B", "ROLE_A")
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.HashKey(), b.HashKey())

	b.SetAttribute("ip", "10.0.0.1")
	assert.True(t, a.Equal(b), "attributes do not take part in equality")

	assert.False(t, a.Equal(mk("bob", nil, "main", "ROLE_A", "ROLE_B")))
	assert.False(t, a.Equal(mk("alice", nil, "other", "ROLE_A", "ROLE_B")))
	assert.False(t, a.Equal(mk("alice", nil, "main", "ROLE_A")))
	assert.False(t, a.Equal(mk("alice", "pw", "main", "ROLE_A", "ROLE_B")))
	assert.False(t, a.Equal(nil))

	c := mk("alice", nil, "main", "ROLE_A", "ROLE_B")
	require.NoError(t, c.SetAuthenticated(false))
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.HashKey(), c.HashKey())

	pre, err := NewPreAuthenticatedToken(Name("alice"), nil, "main", Roles("ROLE_A", "ROLE_B")...)
	require.NoError(t, err)
	assert.False(t, a.Equal(pre), "different kinds are never equal")
	assert.NotEqual(t, a.HashKey(), pre.HashKey())
}

func TestAttributes(t *testing.T) {
	tok, err := NewUsernamePasswordToken(Name("alice"), nil, "main")
	require.NoError(t, err)

	assert.False(t, tok.HasAttribute("ip"))
	tok.SetAttribute("ip", "10.0.0.1")
	v, ok := tok.Attribute("ip")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", v)

	attrs := tok.Attributes()
	attrs["ip"] = "changed"
	v, _ = tok.Attribute("ip")
	assert.Equal(t, "10.0.0.1", v)

	tok.SetAttributes(map[string]any{"agent": "curl"})
	assert.False(t, tok.HasAttribute("ip"))
	assert.True(t, tok.HasAttribute("agent"))
}

func TestStringHidesCredentials(t *testing.T) {
	tok, err := NewUsernamePasswordToken(Name("alice"), "s3cret", "main", Roles("ROLE_USER", "ROLE_ADMIN")...)
	require.NoError(t, err)
	s := tok.String()
	assert.Contains(t, s, "alice")
	assert.Contains(t, s, "ROLE_USER, ROLE_ADMIN")
	assert.NotContains(t, s, "s3cret")
}
