// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

// Authority is anything that can name a granted role or permission.
type Authority interface {
	Authority() string
}

// Role is the plain string form of an Authority.
type Role string

func (r Role) Authority() string {
	return string(r)
}

// Roles wraps plain identifiers as authorities.
func Roles(ids ...string) []Authority {
	out := make([]Authority, len(ids))
	for i, id := range ids {
		out[i] = Role(id)
	}
	return out
}

// AuthoritySet is an immutable, duplicate-free list of authority
// identifiers that remembers the order in which they were first seen.
type AuthoritySet struct {
	ids   []string
	index map[string]struct{}
}

// NewAuthoritySet normalizes items into a set. Nil items and empty
// identifiers are skipped.
func NewAuthoritySet(items ...Authority) AuthoritySet {
	s := AuthoritySet{index: make(map[string]struct{}, len(items))}
	for _, item := range items {
		if item == nil {
			continue
		}
		id := item.Authority()
		if id == "" {
			continue
		}
		if _, seen := s.index[id]; seen {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

func (s AuthoritySet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s AuthoritySet) Len() int {
	return len(s.ids)
}

// Strings returns the identifiers in first-seen order. The slice is a copy.
func (s AuthoritySet) Strings() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Equal compares two sets without regard to order.
func (s AuthoritySet) Equal(other AuthoritySet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for _, id := range s.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

func authoritiesFromStrings(ids []string) AuthoritySet {
	return NewAuthoritySet(Roles(ids...)...)
}
