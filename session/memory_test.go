// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"context"
	"testing"
	"time"

	"github.com/VA7DBI/tokenguard/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(codec.CBOR{}, time.Minute)
	store.now = func() time.Time { return now }

	t.Run("SaveAndLoad", func(t *testing.T) {
		tok := newTestToken(t)
		tok.EraseCredentials()
		require.NoError(t, store.Save(ctx, "sid", tok))

		got, err := store.Load(ctx, "sid")
		require.NoError(t, err)
		assert.True(t, got.Equal(tok))
		assert.Nil(t, got.Credentials())
	})

	t.Run("LoadedTokensAreIndependent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sid", newTestToken(t)))

		first, err := store.Load(ctx, "sid")
		require.NoError(t, err)
		require.NoError(t, first.SetAuthenticated(false))

		second, err := store.Load(ctx, "sid")
		require.NoError(t, err)
		assert.True(t, second.Authenticated())
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "short", newTestToken(t)))
		now = now.Add(2 * time.Minute)

		_, err := store.Load(ctx, "short")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = store.Load(ctx, "sid")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("SaveSweepsAbandonedSessions", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "abandoned-1", newTestToken(t)))
		require.NoError(t, store.Save(ctx, "abandoned-2", newTestToken(t)))
		require.Equal(t, 2, store.Len())

		now = now.Add(2 * time.Minute)
		require.NoError(t, store.Save(ctx, "fresh", newTestToken(t)))
		assert.Equal(t, 1, store.Len())

		_, err := store.Load(ctx, "fresh")
		assert.NoError(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "gone", newTestToken(t)))
		require.NoError(t, store.Delete(ctx, "gone"))
		require.NoError(t, store.Delete(ctx, "gone"))

		_, err := store.Load(ctx, "gone")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
