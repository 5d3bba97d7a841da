package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/storage"
)

func TestSelectionLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	sel := NewStoreSelection(kv)

	_, ok, err := sel.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sel.Set(ctx, " BILLA "))
	got, ok, err := sel.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BILLA", got)

	raw, err := kv.Get(ctx, SelectedStoreKey)
	require.NoError(t, err)
	assert.Equal(t, "BILLA", string(raw))

	require.NoError(t, sel.Clear(ctx))
	_, err = kv.Get(ctx, SelectedStoreKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "clearing must remove the key")
}

func TestSetEmptyClears(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	sel := NewStoreSelection(kv)
	require.NoError(t, sel.Set(ctx, "FOODORA"))
	require.NoError(t, sel.Set(ctx, ""))
	_, ok, err := sel.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

type brokenStore struct{ storage.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("io") }

func TestGetPropagatesBackendErrors(t *testing.T) {
	sel := NewStoreSelection(brokenStore{storage.NewMemory()})
	_, _, err := sel.Get(context.Background())
	assert.ErrorContains(t, err, "load selected store")
}
