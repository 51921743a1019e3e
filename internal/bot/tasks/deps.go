// Package tasks implements the jobs run by the bot's scheduler.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/rojitobot/internal/broadcast"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/kv"
)

// Broadcaster runs one broadcast cycle.
type Broadcaster interface {
	RunCycle(ctx context.Context) (broadcast.Report, error)
}

// Pruner evicts inactive destinations.
type Pruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int, error)
}

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Store       kv.Store
	Broadcaster Broadcaster
	Registry    Pruner
}
