package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/rojitobot/internal/kv"
)

// Store is the SQLite implementation of kv.Store. It also runs VACUUM on
// request through kv.Maintainer.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var (
	_ kv.Store      = (*Store)(nil)
	_ kv.Maintainer = (*Store)(nil)
)

// NewStore creates a Store backed by an already migrated sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value and version stored under key.
func (s *Store) Get(ctx context.Context, key string) (kv.Item, error) {
	var row entry
	err := s.db.GetContext(ctx, &row, `SELECT key, value, version FROM kv_entries WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kv.Item{}, kv.ErrNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.WarnContext(ctx, "Timeout reading key", "key", key)
		}
		return kv.Item{}, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return kv.Item{Value: row.Value, Version: row.Version}, nil
}

// Put writes value under key if the stored version equals expected.
func (s *Store) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	if expected < 0 {
		return 0, fmt.Errorf("invalid expected version %d for key %q", expected, key)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	row := entry{Key: key, Value: value, Version: expected + 1, UpdatedAt: time.Now().UTC()}

	var result sql.Result
	if expected == 0 {
		result, err = tx.NamedExecContext(ctx, `
			INSERT INTO kv_entries (key, value, version, updated_at)
			VALUES (:key, :value, :version, :updated_at)
			ON CONFLICT(key) DO NOTHING;`, row)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE kv_entries SET value = ?, version = ?, updated_at = ?
			WHERE key = ? AND version = ?;`,
			row.Value, row.Version, row.UpdatedAt, key, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write key %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for key %q: %w", key, err)
	}
	if affected == 0 {
		return 0, kv.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit write for key %q: %w", key, err)
	}
	tx = nil

	return row.Version, nil
}

// RunMaintenance performs VACUUM to reclaim space left by rewritten blobs.
func (s *Store) RunMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance (VACUUM)...")
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to run VACUUM", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
	return nil
}
