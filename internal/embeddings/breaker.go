package embeddings

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes a BreakerEmbedder.
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a probe is allowed.
	Cooldown time.Duration
}

// DefaultBreakerConfig opens after three straight failures for thirty seconds.
var DefaultBreakerConfig = BreakerConfig{Failures: 3, Cooldown: 30 * time.Second}

// BreakerEmbedder stops calling a failing embedder for a while, so that
// keyword searches fall back to lexical matching without waiting on timeouts.
type BreakerEmbedder struct {
	next Embedder
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder wraps next with a circuit breaker named name.
func NewBreakerEmbedder(next Embedder, name string, cfg BreakerConfig, logger *zap.Logger) *BreakerEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Failures == 0 {
		cfg.Failures = DefaultBreakerConfig.Failures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig.Cooldown
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		// A caller giving up is not the provider's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerEmbedder{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State reports the breaker state.
func (b *BreakerEmbedder) State() gobreaker.State {
	return b.cb.State()
}

// Embed implements Embedder. While the circuit is open it fails with
// gobreaker.ErrOpenState without calling the wrapped embedder.
func (b *BreakerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return out.([][]float32), nil
}
