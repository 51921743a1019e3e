package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/rojitobot/internal/broadcast"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/kv/kvtest"
)

type fakeBroadcaster struct {
	err      error
	deadline bool
}

func (f *fakeBroadcaster) RunCycle(ctx context.Context) (broadcast.Report, error) {
	_, f.deadline = ctx.Deadline()
	return broadcast.Report{ArtifactID: "a1", Targets: 2, Delivered: 2}, f.err
}

type fakePruner struct {
	calls []time.Duration
}

func (f *fakePruner) Prune(_ context.Context, ttl time.Duration) (int, error) {
	f.calls = append(f.calls, ttl)
	return 1, nil
}

type maintainedStore struct {
	*kvtest.Store
	runs int
	err  error
}

func (s *maintainedStore) RunMaintenance(context.Context) error {
	s.runs++
	return s.err
}

func testDeps() (TaskDeps, *fakeBroadcaster, *fakePruner) {
	b := &fakeBroadcaster{}
	p := &fakePruner{}
	return TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Broadcast: config.BroadcastConfig{Timeout: time.Minute},
		},
		Store:       kvtest.New(),
		Broadcaster: b,
		Registry:    p,
	}, b, p
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	deps, _, _ := testDeps()
	got := RegisterAllTasks(deps)
	assert.Contains(t, got, "broadcast")
	assert.Contains(t, got, "registry_cleanup")
	assert.NotContains(t, got, "sql_maintenance")

	deps.Store = &maintainedStore{Store: kvtest.New()}
	assert.Contains(t, RegisterAllTasks(deps), "sql_maintenance")
}

func TestBroadcastTask(t *testing.T) {
	t.Parallel()

	deps, b, _ := testDeps()
	task := RegisterAllTasks(deps)["broadcast"]
	require.NoError(t, task(context.Background()))
	assert.True(t, b.deadline)

	b.err = errors.New("generation failed")
	require.ErrorIs(t, task(context.Background()), b.err)
}

func TestRegistryCleanupTask(t *testing.T) {
	t.Parallel()

	deps, _, p := testDeps()
	task := RegisterAllTasks(deps)["registry_cleanup"]
	require.NoError(t, task(context.Background()))
	assert.Empty(t, p.calls)

	deps.Config.Registry.TTL = 48 * time.Hour
	require.NoError(t, task(context.Background()))
	assert.Equal(t, []time.Duration{48 * time.Hour}, p.calls)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	deps, _, _ := testDeps()
	store := &maintainedStore{Store: kvtest.New()}
	deps.Store = store
	task := RegisterAllTasks(deps)["sql_maintenance"]

	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, store.runs)

	store.err = errors.New("disk I/O error")
	require.ErrorIs(t, task(context.Background()), store.err)
}
