// Package redisstore implements kv.Store on Redis hashes, using WATCH/MULTI
// for conditional writes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/edgard/rojitobot/internal/kv"
)

const (
	fieldValue   = "value"
	fieldVersion = "version"
)

// Store keeps each key as a hash with a value and a version field.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ kv.Store = (*Store)(nil)

// New connects to the Redis instance at url and verifies it with a PING.
func New(ctx context.Context, url, prefix string, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return NewWithClient(client, prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_store"),
	}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value and version stored under key.
func (s *Store) Get(ctx context.Context, key string) (kv.Item, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return kv.Item{}, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	if len(fields) == 0 {
		return kv.Item{}, kv.ErrNotFound
	}
	version, err := strconv.ParseInt(fields[fieldVersion], 10, 64)
	if err != nil {
		return kv.Item{}, fmt.Errorf("redisstore: bad version for %q: %w", key, err)
	}
	return kv.Item{Value: []byte(fields[fieldValue]), Version: version}, nil
}

// Put writes value under key if the stored version equals expected.
func (s *Store) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	rk := s.key(key)
	next := expected + 1

	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, rk, fieldVersion).Int64()
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return err
		}
		if current != expected {
			return kv.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rk, fieldValue, value, fieldVersion, next)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, rk)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, kv.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return 0, kv.ErrConflict
	default:
		return 0, fmt.Errorf("redisstore: put %q: %w", key, err)
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
