// Package database provides the SQLite-backed implementation of the kv.Store
// contract, including connection setup and schema migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/rojitobot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Open connects to the SQLite database at dsn, brings the kv_entries schema
// up to date and returns a Store over it. The caller closes the Store.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite store %q: %w", dsn, err)
	}

	// SQLite serializes writers, so a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := NewStore(db, logger)
	applied, err := store.migrate()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			store.logger.Error("Error closing sqlite store after migration failure", "error", closeErr)
		}
		return nil, err
	}

	store.logger.Info("SQLite store ready", "dsn", dsn, "migrated", applied)
	return store, nil
}

// migrate applies the embedded migrations. It reports whether any ran.
func (s *Store) migrate() (bool, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	target, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return false, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return false, fmt.Errorf("failed to create migrator: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return true, nil
}
