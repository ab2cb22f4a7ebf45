// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

const breakerName = "recommend-store"

// BreakerStore wraps a Store with a circuit breaker. When the store is
// failing, the open circuit rejects reads immediately and the service's
// per-operation fallback policy takes over, instead of every query
// waiting on a broken database.
type BreakerStore struct {
	store Store
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerStore wraps store with a circuit breaker. The circuit opens
// after a 60% failure rate over at least 10 requests, and probes
// recovery after 30 seconds.
func NewBreakerStore(store Store) *BreakerStore {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerStore{store: store, cb: cb}
}

// execute runs one store read through the circuit breaker and records
// the outcome.
func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return result, nil
}

// castResult type-asserts a circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// ListRatings implements Store.
func (b *BreakerStore) ListRatings(ctx context.Context) ([]models.Rating, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.store.ListRatings(ctx)
	})
	return castResult[[]models.Rating](result, err)
}

// ListRatingsForUser implements Store.
func (b *BreakerStore) ListRatingsForUser(ctx context.Context, userID string) ([]models.Rating, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.store.ListRatingsForUser(ctx, userID)
	})
	return castResult[[]models.Rating](result, err)
}

// GetProduct implements Store.
func (b *BreakerStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.store.GetProduct(ctx, id)
	})
	return castResult[*models.Product](result, err)
}

// TopRatedProducts implements Store. It bypasses the circuit breaker:
// this is the fallback ranking, and an open circuit must still be able
// to degrade to it rather than reject the degraded path too.
func (b *BreakerStore) TopRatedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	return b.store.TopRatedProducts(ctx, limit)
}

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

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
