// Package kvtest provides an in-memory kv.Store for tests.
package kvtest

import (
	"context"
	"sync"

	"github.com/edgard/rojitobot/internal/kv"
)

// Store is a versioned in-memory kv.Store.
type Store struct {
	mu    sync.Mutex
	items map[string]kv.Item
	puts  map[string]int
}

// New returns an empty Store.
func New() *Store {
	return &Store{items: make(map[string]kv.Item), puts: make(map[string]int)}
}

// Get implements kv.Store.
func (s *Store) Get(_ context.Context, key string) (kv.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return kv.Item{}, kv.ErrNotFound
	}
	return kv.Item{Value: append([]byte(nil), item.Value...), Version: item.Version}, nil
}

// Put implements kv.Store.
func (s *Store) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[key].Version != expected {
		return 0, kv.ErrConflict
	}
	s.puts[key]++
	next := expected + 1
	s.items[key] = kv.Item{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}

// Ping implements kv.Store.
func (s *Store) Ping(context.Context) error { return nil }

// Close implements kv.Store.
func (s *Store) Close() error { return nil }

// Writes returns how many successful writes key has received.
func (s *Store) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

// Raw returns the stored bytes for key.
func (s *Store) Raw(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.items[key].Value)
}
