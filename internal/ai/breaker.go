package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/edgard/rojitobot/internal/config"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Breaker stops calling a failing provider for a cool-down period.
type Breaker struct {
	next Generator
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker that opens after
// cfg.MaxFailures consecutive failures and half-opens after cfg.OpenTimeout.
func NewBreaker(next Generator, cfg config.BreakerConfig, log *slog.Logger) *Breaker {
	logger := log.With("component", "ai_breaker", "provider", next.Name())
	maxFailures := cfg.MaxFailures
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				// A caller giving up says nothing about the provider.
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Generation circuit breaker changed state", "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Name implements Generator.
func (b *Breaker) Name() string { return b.next.Name() }

// Generate implements Generator.
func (b *Breaker) Generate(ctx context.Context, req *Request) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%s generation unavailable: %w", b.next.Name(), err)
		}
		return "", err
	}
	return out.(string), nil
}
