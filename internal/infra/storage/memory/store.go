// Package memory implements an in-memory storage Store for tests and
// throwaway sessions.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/storage/core"
)

type entry struct {
	info core.Info
	data []byte
}

// Store implements core.Store backed by process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
}

// New returns an empty in-memory store.
func New() *Store { return &Store{objs: make(map[string]entry)} }

// Driver returns the storage driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores value under key, replacing any previous value.
func (s *Store) Put(_ context.Context, key string, value []byte) (core.Info, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, err
	}
	data := append([]byte(nil), value...)
	info := core.Info{Key: k, Size: int64(len(data)), ETag: core.ETag(data), LastModified: time.Now().UTC()}
	s.mu.Lock()
	s.objs[k] = entry{info: info, data: data}
	s.mu.Unlock()
	return info, nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	obj, ok := s.objs[k]
	s.mu.RUnlock()
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Delete removes the value returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[k]
	if ok {
		delete(s.objs, k)
	}
	return ok, nil
}

// List returns all entries whose key starts with prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.objs))
	for k, v := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
