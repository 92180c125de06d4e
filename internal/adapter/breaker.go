package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig decides when a lab is treated as down. Once tripped, dials
// fail immediately instead of each waiting out its own timeout.
type BreakerConfig struct {
	// MinRequests is the number of dials observed before the ratio counts
	MinRequests uint32
	// FailureRatio trips the breaker when reached
	FailureRatio float64
	// Cooldown is how long the breaker stays open before probing again
	Cooldown time.Duration
}

// DefaultBreakerConfig returns a config for labs of a few dozen routers
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:  5,
		FailureRatio: 0.8,
		Cooldown:     30 * time.Second,
	}
}

// BreakerDialer wraps a Dialer with a circuit breaker
type BreakerDialer struct {
	next Dialer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerDialer creates a dialer that stops dialing a lab that keeps failing
func NewBreakerDialer(next Dialer, cfg BreakerConfig, logger *zap.Logger) *BreakerDialer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ssh-dial",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// a cancelled run says nothing about the lab
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	return &BreakerDialer{next: next, cb: cb}
}

// Dial implements Dialer
func (d *BreakerDialer) Dial(ctx context.Context, address string) (Session, error) {
	s, err := d.cb.Execute(func() (interface{}, error) {
		return d.next.Dial(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return s.(Session), nil
}

// State returns the breaker state, for logging and tests
func (d *BreakerDialer) State() gobreaker.State {
	return d.cb.State()
}
