package tasks

import (
	"context"

	"github.com/edgard/rojitobot/internal/kv"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must
// respect ctx cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the tasks keyed by the name used in the
// scheduler.tasks config section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"broadcast":        newBroadcastTask(deps),
		"registry_cleanup": newRegistryCleanupTask(deps),
	}

	// Only the SQL backend needs housekeeping.
	if m, ok := deps.Store.(kv.Maintainer); ok {
		tasks["sql_maintenance"] = newSQLMaintenanceTask(deps, m)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
