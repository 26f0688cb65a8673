package repository

import (
	"context"

	"github.com/fjod/go_cart/order-pricing/domain"
)

// MockCartStore implements CartStore for testing
type MockCartStore struct {
	Cart      *domain.Cart
	Lines     []domain.CartLine
	Err       error
	Calls     int
	CloseErr  error
	PingCalls int
}

func (m *MockCartStore) GetActiveCart(_ context.Context, _ string, _ int64) (*domain.Cart, error) {
	m.Calls++
	return m.Cart, m.Err
}

func (m *MockCartStore) GetCart(_ context.Context, _ int64) (*domain.Cart, error) {
	m.Calls++
	return m.Cart, m.Err
}

func (m *MockCartStore) GetCartLines(_ context.Context, _ int64) ([]domain.CartLine, error) {
	m.Calls++
	return m.Lines, m.Err
}

func (m *MockCartStore) Ping(_ context.Context) error {
	m.PingCalls++
	return m.Err
}

func (m *MockCartStore) Close() error {
	return m.CloseErr
}
