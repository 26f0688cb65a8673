package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name                string
	MaxFailures         uint32
	OpenTimeout         time.Duration
	HalfOpenMaxRequests uint32
}

var DefaultBreakerSettings = BreakerSettings{
	Name:                "cart-store",
	MaxFailures:         5,
	OpenTimeout:         10 * time.Second,
	HalfOpenMaxRequests: 1,
}

// BreakerStore guards a CartStore with a circuit breaker. A missing cart
// or a caller's cancelled context does not count as a store failure.
// While the breaker is open every call fails with ErrUnavailable.
type BreakerStore struct {
	next CartStore
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next CartStore, settings BreakerSettings, log zerolog.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenMaxRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrCartNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) GetActiveCart(ctx context.Context, sessionID string, hubID int64) (*domain.Cart, error) {
	return execute(b.cb, func() (*domain.Cart, error) {
		return b.next.GetActiveCart(ctx, sessionID, hubID)
	})
}

func (b *BreakerStore) GetCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	return execute(b.cb, func() (*domain.Cart, error) {
		return b.next.GetCart(ctx, cartID)
	})
}

func (b *BreakerStore) GetCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	return execute(b.cb, func() ([]domain.CartLine, error) {
		return b.next.GetCartLines(ctx, cartID)
	})
}

func (b *BreakerStore) Ping(ctx context.Context) error {
	_, err := execute(b.cb, func() (struct{}, error) {
		return struct{}{}, b.next.Ping(ctx)
	})
	return err
}

func (b *BreakerStore) Close() error {
	return b.next.Close()
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	v, err := cb.Execute(func() (any, error) {
		r, err := fn()
		return r, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
