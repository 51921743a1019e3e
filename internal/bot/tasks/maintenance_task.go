package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/rojitobot/internal/kv"
)

func newSQLMaintenanceTask(deps TaskDeps, m kv.Maintainer) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting SQL maintenance")
		start := time.Now()

		if err := m.RunMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
		return nil
	}
}

// newRegistryCleanupTask evicts destinations idle for longer than the
// configured TTL. A zero TTL disables eviction.
func newRegistryCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "registry_cleanup")

	return func(ctx context.Context) error {
		ttl := deps.Config.Registry.TTL
		if ttl <= 0 {
			log.DebugContext(ctx, "Registry TTL disabled, skipping cleanup")
			return nil
		}

		removed, err := deps.Registry.Prune(ctx, ttl)
		if err != nil {
			return fmt.Errorf("prune registry: %w", err)
		}
		log.InfoContext(ctx, "Registry cleanup completed", "removed", removed, "ttl", ttl)
		return nil
	}
}
