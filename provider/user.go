// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/VA7DBI/tokenguard/config"
	"github.com/VA7DBI/tokenguard/token"
)

var ErrUserNotFound = errors.New("user not found")

// User is an account record. It is used directly as a token principal.
type User struct {
	Name         string
	PasswordHash []byte
	Roles        []string
}

func (u *User) Identifier() string {
	return u.Name
}

func (u *User) Authorities() []token.Authority {
	return token.Roles(u.Roles...)
}

// UserLookup finds account records by name.
type UserLookup interface {
	LookupUser(ctx context.Context, name string) (*User, error)
}

// StaticUsers is a UserLookup over a fixed set of accounts.
type StaticUsers map[string]*User

// NewStaticUsers builds the lookup from configured accounts. Duplicate names
// are rejected.
func NewStaticUsers(users []config.User) (StaticUsers, error) {
	out := make(StaticUsers, len(users))
	for _, u := range users {
		if u.Name == "" {
			return nil, errors.New("configured user has no name")
		}
		if _, dup := out[u.Name]; dup {
			return nil, fmt.Errorf("user %q configured twice", u.Name)
		}
		out[u.Name] = &User{
			Name:         u.Name,
			PasswordHash: []byte(u.PasswordHash),
			Roles:        append([]string(nil), u.Roles...),
		}
	}
	return out, nil
}

func (s StaticUsers) LookupUser(ctx context.Context, name string) (*User, error) {
	u, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, name)
	}
	return u, nil
}
