package tasks

import (
	"context"
	"fmt"
)

func newBroadcastTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "broadcast")

	return func(ctx context.Context) error {
		if timeout := deps.Config.Broadcast.Timeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report, err := deps.Broadcaster.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("broadcast cycle: %w", err)
		}
		log.InfoContext(ctx, "Broadcast cycle completed",
			"artifact_id", report.ArtifactID,
			"targets", report.Targets,
			"delivered", report.Delivered,
			"failed", report.Failed,
		)
		return nil
	}
}
