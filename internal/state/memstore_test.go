package state_test

import (
	"context"
	"errors"
	"sync"

	"github.com/edgard/rojitobot/internal/kv"
)

// memStore is an in-memory kv.Store with hooks for injecting failures and
// interleaved writes.
type memStore struct {
	mu     sync.Mutex
	items  map[string]kv.Item
	getErr error
	puts   int

	// beforePut runs once per Put, outside the lock, before the version check.
	beforePut func(key string)
}

func newMemStore() *memStore {
	return &memStore{items: map[string]kv.Item{}}
}

func (m *memStore) Get(_ context.Context, key string) (kv.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return kv.Item{}, m.getErr
	}
	item, ok := m.items[key]
	if !ok {
		return kv.Item{}, kv.ErrNotFound
	}
	return kv.Item{Value: append([]byte(nil), item.Value...), Version: item.Version}, nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	if hook := m.beforePut; hook != nil {
		hook(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.items[key].Version != expected {
		return 0, kv.ErrConflict
	}
	next := expected + 1
	m.items[key] = kv.Item{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}

// raw stores value directly, bumping the version like a foreign writer.
func (m *memStore) raw(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = kv.Item{Value: []byte(value), Version: m.items[key].Version + 1}
}

func (m *memStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.items[key].Value)
}

func (m *memStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

var errUnavailable = errors.New("store unavailable")
