// Package kv defines the versioned key-value contract that every persisted
// piece of bot state is built on.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("kv: key not found")
	// ErrConflict is returned by Put when the stored version no longer matches
	// the version the caller read.
	ErrConflict = errors.New("kv: version conflict")
)

// Item is a stored value together with its version. Versions start at 1 for
// the first write and grow by one on every successful Put.
type Item struct {
	Value   []byte
	Version int64
}

// Store is a durable key-value medium with conditional writes.
//
// Put only succeeds when the current version of key equals expected. An
// expected version of 0 means the key must not exist yet. The returned int64
// is the new version.
type Store interface {
	Get(ctx context.Context, key string) (Item, error)
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Maintainer is implemented by backends that need periodic housekeeping.
type Maintainer interface {
	RunMaintenance(ctx context.Context) error
}
