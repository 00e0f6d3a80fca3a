package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
	"github.com/kittylit/kittylit/internal/metrics"
)

// StageDatabase names the book store stage in errors and metrics.
const StageDatabase = "db"

// BreakerSettings configures the book store circuit breaker.
type BreakerSettings struct {
	MaxRequests      uint32        // trial calls allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open-state duration before half-open
	FailureThreshold uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerSettings returns conservative breaker defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// GuardedStore bounds every book store query with a timeout and a circuit breaker.
// Any failure surfaces as *domain.DataUnavailableError.
type GuardedStore struct {
	inner   BookStore
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]book.Book]
	logger  *zap.Logger
}

// NewGuardedStore wraps inner. A non-positive timeout disables the per-query deadline.
func NewGuardedStore(
	inner BookStore, timeout time.Duration, bs BreakerSettings, logger *zap.Logger,
) *GuardedStore {
	g := &GuardedStore{inner: inner, timeout: timeout, logger: logger}
	threshold := max(bs.FailureThreshold, 1)
	g.cb = gobreaker.NewCircuitBreaker[[]book.Book](gobreaker.Settings{
		Name:        "book_store",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: g.onStateChange,
		// The caller going away says nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	metrics.BreakerState.WithLabelValues("book_store").Set(0)
	return g
}

// Query runs the inner query under the breaker and the configured timeout.
func (g *GuardedStore) Query(ctx context.Context, c criteria.Criteria) ([]book.Book, error) {
	books, err := g.cb.Execute(func() ([]book.Book, error) {
		qctx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.inner.Query(qctx, c)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			err = fmt.Errorf("circuit breaker %s: %w", g.cb.State(), err)
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("query timed out after %s: %w", g.timeout, err)
		}
		return nil, domain.NewDataUnavailable(StageDatabase, err)
	}
	return books, nil
}

// State returns the current breaker state.
func (g *GuardedStore) State() gobreaker.State {
	return g.cb.State()
}

func (g *GuardedStore) onStateChange(name string, from, to gobreaker.State) {
	metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	g.logger.Warn("Circuit breaker state change",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
