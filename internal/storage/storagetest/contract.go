// Package storagetest holds the behavioural contract every storage backend
// must satisfy. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/storage/core"
)

// Run exercises overwrite, lookup, listing and deletion against a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) core.Store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "absent")
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	})

	t.Run("put get overwrite", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		info, err := s.Put(ctx, "cart-storage", []byte(`[]`))
		require.NoError(t, err)
		assert.Equal(t, "cart-storage", info.Key)
		assert.Equal(t, int64(2), info.Size)

		_, err = s.Put(ctx, "cart-storage", []byte(`[{"quantity":1}]`))
		require.NoError(t, err)
		got, err := s.Get(ctx, "cart-storage")
		require.NoError(t, err)
		assert.Equal(t, `[{"quantity":1}]`, string(got))
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.Put(ctx, "k", []byte("abc"))
		require.NoError(t, err)
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		got[0] = 'z'
		again, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("list by prefix", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, k := range []string{"prefs/b", "prefs/a", "cart-storage"} {
			_, err := s.Put(ctx, k, []byte(k))
			require.NoError(t, err)
		}
		infos, err := s.List(ctx, "prefs/")
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "prefs/a", infos[0].Key)
		assert.Equal(t, "prefs/b", infos[1].Key)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.Put(ctx, "selectedStore", []byte("BILLA"))
		require.NoError(t, err)
		existed, err := s.Delete(ctx, "selectedStore")
		require.NoError(t, err)
		assert.True(t, existed)
		existed, err = s.Delete(ctx, "selectedStore")
		require.NoError(t, err)
		assert.False(t, existed)
		_, err = s.Get(ctx, "selectedStore")
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("invalid key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(context.Background(), "", []byte("x"))
		assert.True(t, errors.Is(err, core.ErrInvalidKey), "got %v", err)
	})
}
