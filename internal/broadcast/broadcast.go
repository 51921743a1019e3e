// Package broadcast generates the periodic update and fans it out to every
// registered group chat.
package broadcast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/rojitobot/internal/ai"
	"github.com/edgard/rojitobot/internal/metrics"
	"github.com/edgard/rojitobot/internal/state"
)

// State is the phase of the broadcast cycle.
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateFanningOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateFanningOut:
		return "fanning_out"
	default:
		return "unknown"
	}
}

// Deliverer sends text to a chat.
type Deliverer interface {
	SendText(ctx context.Context, chatID string, text string) error
}

// Destinations lists the chats of a registry partition.
type Destinations interface {
	List(ctx context.Context, kind state.Kind) []state.Destination
}

// Artifacts stores the last generated broadcast.
type Artifacts interface {
	Save(ctx context.Context, artifact state.Artifact) error
	Last(ctx context.Context) (state.Artifact, bool)
}

// Report summarizes one cycle.
type Report struct {
	ArtifactID string
	Targets    int
	Delivered  int
	Failed     int
}

// Options configures the generation call.
type Options struct {
	SystemInstruction string
	WebSearch         bool
	Language          string
	Temperature       *float32
}

// Scheduler runs broadcast cycles. Overlapping cycles are not prevented here;
// the caller serializes them.
type Scheduler struct {
	gen          ai.Generator
	artifacts    Artifacts
	destinations Destinations
	deliverer    Deliverer
	opts         Options
	log          *slog.Logger
	now          func() time.Time
	state        atomic.Int32
}

// New creates a Scheduler.
func New(gen ai.Generator, artifacts Artifacts, destinations Destinations, deliverer Deliverer, opts Options, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		gen:          gen,
		artifacts:    artifacts,
		destinations: destinations,
		deliverer:    deliverer,
		opts:         opts,
		log:          log.With("component", "broadcast"),
		now:          time.Now,
	}
}

// State returns the current phase.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Last returns the most recent artifact, if one was ever generated.
func (s *Scheduler) Last(ctx context.Context) (state.Artifact, bool) {
	return s.artifacts.Last(ctx)
}

// RunCycle generates one update, stores it and delivers it to every group.
// Generation is not retried. A failed or panicking delivery is logged and
// the remaining destinations are still served. An error is returned only
// when nothing was generated.
func (s *Scheduler) RunCycle(ctx context.Context) (Report, error) {
	defer s.state.Store(int32(StateIdle))

	s.state.Store(int32(StateGenerating))
	now := s.now().UTC()
	text, err := s.gen.Generate(ctx, &ai.Request{
		SystemInstruction: s.opts.SystemInstruction,
		Messages:          []ai.Message{{Role: ai.RoleUser, Content: BuildPrompt(now, s.opts.Language)}},
		Temperature:       s.opts.Temperature,
		LanguageHint:      s.opts.Language,
		WebSearch:         s.opts.WebSearch,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		metrics.BroadcastCyclesTotal.WithLabelValues("generation_failed").Inc()
		s.log.ErrorContext(ctx, "Broadcast generation failed", "error", err)
		return Report{}, fmt.Errorf("generate broadcast: %w", err)
	}

	artifact := state.Artifact{ID: uuid.NewString(), Content: text, Timestamp: now}
	if err := s.artifacts.Save(ctx, artifact); err != nil {
		// Delivery still goes ahead; the stored copy is only for replay.
		s.log.ErrorContext(ctx, "Failed to store broadcast artifact", "artifact_id", artifact.ID, "error", err)
	}

	s.state.Store(int32(StateFanningOut))
	groups := s.destinations.List(ctx, state.KindGroup)
	report := Report{ArtifactID: artifact.ID, Targets: len(groups)}
	for _, dest := range groups {
		if err := s.deliver(ctx, dest.ID, artifact.Content); err != nil {
			report.Failed++
			metrics.BroadcastDeliveriesTotal.WithLabelValues("failed").Inc()
			s.log.WarnContext(ctx, "Broadcast delivery failed", "artifact_id", artifact.ID, "chat_id", dest.ID, "error", err)
			continue
		}
		report.Delivered++
		metrics.BroadcastDeliveriesTotal.WithLabelValues("delivered").Inc()
	}

	metrics.BroadcastCyclesTotal.WithLabelValues("completed").Inc()
	s.log.InfoContext(ctx, "Broadcast cycle completed",
		"artifact_id", artifact.ID, "targets", report.Targets, "delivered", report.Delivered, "failed", report.Failed)
	return report, nil
}

func (s *Scheduler) deliver(ctx context.Context, chatID, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery panicked: %v", r)
		}
	}()
	return s.deliverer.SendText(ctx, chatID, text)
}
