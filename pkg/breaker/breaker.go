// Package breaker guards flaky store reads with a gobreaker circuit breaker
// and an optional degraded fallback.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// Config holds configuration for a circuit breaker.
type Config struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the maximum number of requests allowed in the half-open state.
	// 0 means 1 request is allowed.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing internal counts.
	// 0 means internal counts are never cleared during the closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once failures/requests reaches it.
	FailureRatio float64

	// MinRequests is the minimum number of requests needed before the failure ratio is evaluated.
	MinRequests uint32
}

// DefaultConfig returns sensible defaults for a circuit breaker.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// FallbackFunc produces a substitute result when the guarded call fails.
type FallbackFunc[T any] func(ctx context.Context, err error) (T, error)

// ErrOpen is returned when the breaker is open and rejects the call.
var ErrOpen = gobreaker.ErrOpenState

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_fallback_invoked_total",
			Help: "Total number of times the circuit breaker fallback was invoked",
		},
		[]string{"name"},
	)
)

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker wraps calls returning T with circuit breaker protection.
type Breaker[T any] struct {
	cb       *gobreaker.CircuitBreaker[T]
	logger   *slog.Logger
	fallback FallbackFunc[T]
	name     string
}

// New creates a breaker. Context cancellation by the caller is not counted
// as a failure.
func New[T any](cfg Config, logger *slog.Logger) *Breaker[T] {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker[T]{
		cb:     gobreaker.NewCircuitBreaker[T](settings),
		logger: logger,
		name:   cfg.Name,
	}
}

// WithFallback returns a copy of the breaker that invokes fn whenever the
// guarded call fails or the breaker rejects it.
func (b *Breaker[T]) WithFallback(fn FallbackFunc[T]) *Breaker[T] {
	cpy := *b
	cpy.fallback = fn
	return &cpy
}

// Execute runs fn through the breaker.
func (b *Breaker[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (T, error) {
		return fn(ctx)
	})
	if err != nil && b.fallback != nil {
		breakerFallbackTotal.WithLabelValues(b.name).Inc()
		b.logger.WarnContext(ctx, "guarded call failed, invoking fallback",
			slog.String("breaker", b.name),
			slog.String("error", err.Error()),
		)
		return b.fallback(ctx, err)
	}
	return res, err
}

// State returns the current state of the circuit breaker.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}
