package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/chat"
)

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = errors.New("completion service temporarily unavailable")

type completer interface {
	Complete(ctx context.Context, req chat.CompletionRequest) (string, error)
}

type streamCompleter interface {
	CompleteStream(ctx context.Context, req chat.CompletionRequest, onDelta func(string)) (string, error)
}

// BreakerConfig controls when the breaker trips and how long it stays open.
type BreakerConfig struct {
	// ConsecutiveFailures before opening; <= 0 disables tripping.
	ConsecutiveFailures int
	Cooldown            time.Duration
}

// Breaker guards a completer with a circuit breaker so a dead upstream
// fails fast instead of holding every session pending until timeout.
type Breaker struct {
	next   completer
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreaker wraps next.
func NewBreaker(next completer, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := uint32(0)
	if cfg.ConsecutiveFailures > 0 {
		threshold = uint32(cfg.ConsecutiveFailures)
	}

	settings := gobreaker.Settings{
		Name:        "completion",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// State reports the breaker state, e.g. for health checks.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Complete forwards to the wrapped completer unless the circuit is open.
func (b *Breaker) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	return b.execute(func() (string, error) {
		return b.next.Complete(ctx, req)
	})
}

// CompleteStream streams through the wrapped completer when it can.
func (b *Breaker) CompleteStream(ctx context.Context, req chat.CompletionRequest, onDelta func(string)) (string, error) {
	streamer, ok := b.next.(streamCompleter)
	if !ok {
		return b.Complete(ctx, req)
	}
	return b.execute(func() (string, error) {
		return streamer.CompleteStream(ctx, req, onDelta)
	})
}

func (b *Breaker) execute(call func() (string, error)) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return "", err
	}

	content, _ := result.(string)
	return content, nil
}
