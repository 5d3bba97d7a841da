// Package preferences persists user choices that outlive a session, such as
// the store whose catalog is being browsed.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/storage"
)

// SelectedStoreKey is the storage key holding the selected store name.
const SelectedStoreKey = "selectedStore"

// StoreSelection reads and writes the selected store. No selection means the
// catalog of all stores is shown.
type StoreSelection struct {
	kv storage.Store
}

// NewStoreSelection returns a StoreSelection over kv.
func NewStoreSelection(kv storage.Store) *StoreSelection {
	return &StoreSelection{kv: kv}
}

// Get returns the selected store; ok is false when none is selected.
func (s *StoreSelection) Get(ctx context.Context) (store string, ok bool, err error) {
	b, err := s.kv.Get(ctx, SelectedStoreKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load selected store: %w", err)
	}
	store = strings.TrimSpace(string(b))
	return store, store != "", nil
}

// Set stores name as the selection. An empty name clears it.
func (s *StoreSelection) Set(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Clear(ctx)
	}
	if _, err := s.kv.Put(ctx, SelectedStoreKey, []byte(name)); err != nil {
		return fmt.Errorf("save selected store: %w", err)
	}
	return nil
}

// Clear removes the selection key entirely.
func (s *StoreSelection) Clear(ctx context.Context) error {
	if _, err := s.kv.Delete(ctx, SelectedStoreKey); err != nil {
		return fmt.Errorf("clear selected store: %w", err)
	}
	return nil
}
