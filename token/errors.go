// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package token

import "errors"

var (
	// ErrInvalidArgument is returned at construction when a required
	// identifying field is empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState is returned when code tries to raise trust on a token
	// after it was constructed.
	ErrIllegalState = errors.New("illegal state")

	// ErrMalformedState is returned by Restore when the state does not match
	// what the token kind writes.
	ErrMalformedState = errors.New("malformed token state")

	// ErrUnknownKind is returned when no token kind is registered under a name.
	ErrUnknownKind = errors.New("unknown token kind")
)
