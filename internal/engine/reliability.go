package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/connectors"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ReliabilityWrapper: лимитер, предохранитель и ретраи вокруг одного backend.
// Каждый вызов ограничен таймаутом из конфига.
type ReliabilityWrapper struct {
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	timeout  time.Duration
}

func NewReliabilityWrapper(name string, cfg infra.ReliabilityConfig, timeout time.Duration, metrics *Metrics) *ReliabilityWrapper {
	gauge := metrics.CircuitBreakerState.WithLabelValues(name)

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBConsecutiveFailures
		},
		// Отмена вызывающим не считается отказом backend
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			gauge.Set(float64(to))
		},
	})

	attempts := cfg.RetryAttempts
	if attempts == 0 {
		// retry-go трактует 0 как бесконечные попытки
		attempts = 1
	}

	return &ReliabilityWrapper{
		cb:       cb,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		attempts: attempts,
		timeout:  timeout,
	}
}

func (w *ReliabilityWrapper) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	_, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Backend прислал 429 с Retry-After
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.timeout)
			defer cancel()
			return fn(tCtx)
		})
	})
	return err
}

// State: текущее состояние предохранителя, для логов и дашборда.
func (w *ReliabilityWrapper) State() string {
	return w.cb.State().String()
}
