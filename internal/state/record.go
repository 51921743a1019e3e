// Package state holds the typed stores for conversation history, language
// preferences, engagement counters, active destinations and the last
// broadcast. Every store reads and writes JSON documents through a kv.Store
// and never keeps authoritative state in memory.
//
// Mutations are optimistic: the current document and its version are read,
// the change is applied, and the write is conditioned on the version that was
// read. A conflicting concurrent write makes the mutation start over, up to a
// bounded number of attempts.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/metrics"
)

const defaultMaxRetries = 5

// errSkipWrite lets a mutation finish without writing when nothing changed.
var errSkipWrite = errors.New("state: nothing to write")

// Option configures a typed store.
type Option func(*record)

// WithMaxRetries sets how many times a conflicting write is retried.
func WithMaxRetries(n int) Option {
	return func(r *record) {
		if n >= 0 {
			r.maxRetries = uint(n)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *record) {
		if now != nil {
			r.now = now
		}
	}
}

// record is the shared plumbing behind every typed store.
type record struct {
	store      kv.Store
	log        *slog.Logger
	maxRetries uint
	now        func() time.Time
}

func newRecord(store kv.Store, log *slog.Logger, component string, opts []Option) *record {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &record{
		store:      store,
		log:        log.With("component", component),
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// load decodes the document at key into a T. A missing key yields the zero
// value and version 0. A document that fails to decode is logged and also
// yields the zero value, but keeps its version so the next write replaces it.
// Only store failures are returned as errors.
func load[T any](ctx context.Context, r *record, key string) (T, int64, error) {
	var out T

	item, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return out, 0, nil
		}
		return out, 0, err
	}

	if err := json.Unmarshal(item.Value, &out); err != nil {
		r.log.WarnContext(ctx, "Discarding malformed stored value", "key", key, "version", item.Version, "error", err)
		var zero T
		return zero, item.Version, nil
	}
	return out, item.Version, nil
}

// read is load for read paths: store failures are logged and degrade to the
// zero value.
func read[T any](ctx context.Context, r *record, key string) T {
	out, _, err := load[T](ctx, r, key)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to read stored value, using empty default", "key", key, "error", err)
		var zero T
		return zero
	}
	return out
}

// mutate applies fn to the document at key and writes the result back
// conditioned on the version read. fn may return errSkipWrite to leave the
// stored document untouched.
func mutate[T any](ctx context.Context, r *record, key string, fn func(*T) error) (T, error) {
	var result T

	err := retry.Do(
		func() error {
			current, version, err := load[T](ctx, r, key)
			if err != nil {
				return fmt.Errorf("read %q: %w", key, err)
			}
			if err := fn(&current); err != nil {
				if errors.Is(err, errSkipWrite) {
					result = current
					return nil
				}
				return err
			}

			raw, err := json.Marshal(current)
			if err != nil {
				return fmt.Errorf("encode %q: %w", key, err)
			}
			if _, err := r.store.Put(ctx, key, raw, version); err != nil {
				if errors.Is(err, kv.ErrConflict) {
					metrics.StoreConflictsTotal.WithLabelValues(keyFamily(key)).Inc()
					return err
				}
				return fmt.Errorf("write %q: %w", key, err)
			}
			result = current
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.maxRetries+1),
		retry.RetryIf(func(err error) bool { return errors.Is(err, kv.ErrConflict) }),
		retry.Delay(5*time.Millisecond),
		retry.MaxJitter(10*time.Millisecond),
		retry.MaxDelay(250*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.DebugContext(ctx, "Retrying conflicting write", "key", key, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func keyFamily(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
