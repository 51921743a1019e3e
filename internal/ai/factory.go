package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/metrics"
	"github.com/edgard/rojitobot/internal/text"
)

// New creates the Generator selected by cfg.Provider, wrapped with metrics,
// a per-call timeout and, when enabled, a circuit breaker.
func New(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case "gemini":
		gen, err = NewGeminiClient(ctx, cfg, log)
	case "openai":
		gen, err = NewOpenAIClient(cfg, log)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	gen = instrument(gen, cfg.Timeout)
	if cfg.Breaker.Enabled {
		gen = NewBreaker(gen, cfg.Breaker, log)
	}
	return gen, nil
}

// instrumented applies the call timeout, turns the reply into plain text and
// records metrics.
type instrumented struct {
	next      Generator
	timeout   time.Duration
	sanitizer *text.Sanitizer
}

func instrument(next Generator, timeout time.Duration) Generator {
	return &instrumented{next: next, timeout: timeout, sanitizer: text.NewSanitizer()}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Generate(ctx context.Context, req *Request) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := i.next.Generate(ctx, req)
	if err == nil {
		if out = i.sanitizer.Sanitize(out); out == "" {
			err = ErrEmptyResponse
		}
	}

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyResponse):
		outcome = "empty"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	metrics.GenerationDuration.WithLabelValues(i.next.Name(), outcome).Observe(time.Since(start).Seconds())
	metrics.GenerationsTotal.WithLabelValues(i.next.Name(), outcome).Inc()
	return out, err
}
