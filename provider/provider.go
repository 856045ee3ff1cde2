// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/VA7DBI/tokenguard/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrBadCredentials covers both unknown users and wrong passwords so
	// callers cannot tell them apart.
	ErrBadCredentials = errors.New("bad credentials")

	ErrUnsupportedToken = errors.New("token not supported by provider")
)

// Provider verifies an unauthenticated token and returns a new,
// authenticated one.
type Provider interface {
	Supports(t token.Authenticatable) bool
	Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error)
	// Refresh rebuilds t from the current account record. Credentials and
	// attributes are carried over.
	Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error)
}

// PasswordProvider checks UsernamePasswordTokens against bcrypt hashes.
type PasswordProvider struct {
	users     UserLookup
	sourceKey string
}

func NewPasswordProvider(users UserLookup, sourceKey string) *PasswordProvider {
	return &PasswordProvider{users: users, sourceKey: sourceKey}
}

func (p *PasswordProvider) Supports(t token.Authenticatable) bool {
	up, ok := t.(*token.UsernamePasswordToken)
	return ok && up.SourceKey() == p.sourceKey
}

func (p *PasswordProvider) Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	if !p.Supports(t) {
		return nil, ErrUnsupportedToken
	}

	password, ok := t.Credentials().(string)
	if !ok || password == "" {
		return nil, ErrBadCredentials
	}

	user, err := p.users.LookupUser(ctx, t.Principal().Identifier())
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	authenticated, err := token.NewUsernamePasswordToken(token.Record(user), t.Credentials(), p.sourceKey, user.Authorities()...)
	if err != nil {
		return nil, err
	}
	authenticated.SetAttributes(t.Attributes())
	return authenticated, nil
}

func (p *PasswordProvider) Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	if !p.Supports(t) {
		return nil, ErrUnsupportedToken
	}
	return refresh(ctx, p.users, t, func(user *User) (token.Authenticatable, error) {
		return token.NewUsernamePasswordToken(token.Record(user), t.Credentials(), p.sourceKey, user.Authorities()...)
	})
}

// PreAuthenticatedProvider trusts a user name asserted upstream, such as by
// an SSO proxy, as long as the account exists.
type PreAuthenticatedProvider struct {
	users     UserLookup
	sourceKey string
}

func NewPreAuthenticatedProvider(users UserLookup, sourceKey string) *PreAuthenticatedProvider {
	return &PreAuthenticatedProvider{users: users, sourceKey: sourceKey}
}

func (p *PreAuthenticatedProvider) Supports(t token.Authenticatable) bool {
	pt, ok := t.(*token.PreAuthenticatedToken)
	return ok && pt.SourceKey() == p.sourceKey
}

func (p *PreAuthenticatedProvider) Authenticate(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	if !p.Supports(t) {
		return nil, ErrUnsupportedToken
	}

	user, err := p.users.LookupUser(ctx, t.Principal().Identifier())
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	authenticated, err := token.NewPreAuthenticatedToken(token.Record(user), t.Credentials(), p.sourceKey, user.Authorities()...)
	if err != nil {
		return nil, err
	}
	authenticated.SetAttributes(t.Attributes())
	return authenticated, nil
}

func (p *PreAuthenticatedProvider) Refresh(ctx context.Context, t token.Authenticatable) (token.Authenticatable, error) {
	if !p.Supports(t) {
		return nil, ErrUnsupportedToken
	}
	return refresh(ctx, p.users, t, func(user *User) (token.Authenticatable, error) {
		return token.NewPreAuthenticatedToken(token.Record(user), t.Credentials(), p.sourceKey, user.Authorities()...)
	})
}

// refresh looks up t's account again and rebuilds the token with build. A
// token that was downgraded stays downgraded.
func refresh(ctx context.Context, users UserLookup, t token.Authenticatable, build func(*User) (token.Authenticatable, error)) (token.Authenticatable, error) {
	user, err := users.LookupUser(ctx, t.Principal().Identifier())
	if err != nil {
		return nil, err
	}
	refreshed, err := build(user)
	if err != nil {
		return nil, err
	}
	refreshed.SetAttributes(t.Attributes())
	if !t.Authenticated() {
		if err := refreshed.SetAuthenticated(false); err != nil {
			return nil, err
		}
	}
	return refreshed, nil
}
