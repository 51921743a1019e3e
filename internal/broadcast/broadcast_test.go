package broadcast

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgard/rojitobot/internal/ai"
	"github.com/edgard/rojitobot/internal/kv/kvtest"
	"github.com/edgard/rojitobot/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGenerator struct {
	text  string
	err   error
	calls int
	req   *ai.Request
	seen  func()
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(_ context.Context, req *ai.Request) (string, error) {
	s.calls++
	s.req = req
	if s.seen != nil {
		s.seen()
	}
	return s.text, s.err
}

type recordingDeliverer struct {
	mu      sync.Mutex
	sent    map[string]string
	failFor map[string]error
	panicOn string
	seen    func()
}

func (d *recordingDeliverer) SendText(_ context.Context, chatID, text string) error {
	if d.seen != nil {
		d.seen()
	}
	if chatID == d.panicOn {
		panic("telegram client exploded")
	}
	if err := d.failFor[chatID]; err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent == nil {
		d.sent = make(map[string]string)
	}
	d.sent[chatID] = text
	return nil
}

type fixture struct {
	store     *kvtest.Store
	registry  *state.Registry
	artifacts *state.ArtifactStore
}

func newFixture(t *testing.T, groups ...string) *fixture {
	t.Helper()
	store := kvtest.New()
	f := &fixture{
		store:     store,
		registry:  state.NewRegistry(store, nil),
		artifacts: state.NewArtifactStore(store, nil),
	}
	for _, id := range groups {
		require.NoError(t, f.registry.Touch(context.Background(), state.Destination{ID: id, Kind: state.KindGroup}))
	}
	require.NoError(t, f.registry.Touch(context.Background(), state.Destination{ID: "99", Kind: state.KindDirect}))
	return f
}

var cycleTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newScheduler(f *fixture, gen ai.Generator, d Deliverer) *Scheduler {
	s := New(gen, f.artifacts, f.registry, d, Options{SystemInstruction: "You are Rojito.", WebSearch: true, Language: "es"}, nil)
	s.now = func() time.Time { return cycleTime }
	return s
}

func TestRunCycleIsolatesDeliveryFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, "-1", "-2", "-3")
	gen := &stubGenerator{text: "📊 Update"}
	d := &recordingDeliverer{failFor: map[string]error{"-2": errors.New("bot was kicked")}}
	s := newScheduler(f, gen, d)

	report, err := s.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Targets)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, map[string]string{"-1": "📊 Update", "-3": "📊 Update"}, d.sent)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, f.store.Writes("last_broadcast"))
	last, ok := s.Last(ctx)
	require.True(t, ok)
	assert.Equal(t, report.ArtifactID, last.ID)
	assert.Equal(t, "📊 Update", last.Content)
	assert.True(t, cycleTime.Equal(last.Timestamp))
	assert.Equal(t, StateIdle, s.State())
}

func TestRunCycleRecoversFromPanickingDelivery(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "-1", "-2", "-3")
	d := &recordingDeliverer{panicOn: "-1"}
	s := newScheduler(f, &stubGenerator{text: "update"}, d)

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, d.sent, "-2")
	assert.Contains(t, d.sent, "-3")
}

func TestRunCycleGenerationFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{name: "error", gen: &stubGenerator{err: errors.New("quota exceeded")}},
		{name: "empty", gen: &stubGenerator{text: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, "-1")
			d := &recordingDeliverer{}
			s := newScheduler(f, tt.gen, d)

			_, err := s.RunCycle(context.Background())
			require.Error(t, err)
			assert.Equal(t, 1, tt.gen.calls, "generation is not retried")
			assert.Empty(t, d.sent)
			assert.Zero(t, f.store.Writes("last_broadcast"))
			assert.Equal(t, StateIdle, s.State())
		})
	}
}

func TestRunCycleStates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "-1")
	gen := &stubGenerator{text: "update"}
	d := &recordingDeliverer{}
	s := newScheduler(f, gen, d)

	var phases []State
	gen.seen = func() { phases = append(phases, s.State()) }
	d.seen = func() { phases = append(phases, s.State()) }

	assert.Equal(t, StateIdle, s.State())
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []State{StateGenerating, StateFanningOut}, phases)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, "fanning_out", StateFanningOut.String())
}

func TestRunCycleRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	gen := &stubGenerator{text: "update"}
	s := newScheduler(f, gen, &recordingDeliverer{})

	report, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Targets)

	require.NotNil(t, gen.req)
	assert.True(t, gen.req.WebSearch)
	assert.Equal(t, "You are Rojito.", gen.req.SystemInstruction)
	assert.Nil(t, gen.req.Temperature)
	require.Len(t, gen.req.Messages, 1)
	prompt := gen.req.Messages[0].Content
	for _, want := range []string{"SPORTS NEWS", "MARKET UPDATE", "PRE-MATCH INSIGHTS", "Sat, 01 Mar 2025 12:00:00 UTC", "Respond in Spanish."} {
		assert.True(t, strings.Contains(prompt, want), "prompt missing %q", want)
	}
}

func TestRunCycleTemperatureOverride(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	gen := &stubGenerator{text: "update"}
	temp := float32(0.2)
	s := New(gen, f.artifacts, f.registry, &recordingDeliverer{}, Options{Language: "es", Temperature: &temp}, nil)

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gen.req.Temperature)
	assert.InDelta(t, 0.2, *gen.req.Temperature, 0.0001)
}
