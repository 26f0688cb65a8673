package http

import (
	"context"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/repository"
)

// MockCheckoutService implements service.CheckoutService for testing
type MockCheckoutService struct {
	PrepareResp *domain.PrepareResponse
	IntentResp  *domain.PaymentIntent
	Err         error

	LastPrepare *domain.PrepareRequest
	LastIntent  *domain.IntentRequest
}

func (m *MockCheckoutService) Prepare(_ context.Context, req *domain.PrepareRequest) (*domain.PrepareResponse, error) {
	m.LastPrepare = req
	return m.PrepareResp, m.Err
}

func (m *MockCheckoutService) Intent(_ context.Context, req *domain.IntentRequest) (*domain.PaymentIntent, error) {
	m.LastIntent = req
	return m.IntentResp, m.Err
}

// memoryCartStore serves a fixed set of carts for router tests
type memoryCartStore struct {
	carts map[int64]*domain.Cart
	lines map[int64][]domain.CartLine
}

func (m *memoryCartStore) GetActiveCart(_ context.Context, sessionID string, hubID int64) (*domain.Cart, error) {
	for _, c := range m.carts {
		if c.SessionID == sessionID && c.HubID == hubID && c.IsActive() {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *memoryCartStore) GetCart(_ context.Context, cartID int64) (*domain.Cart, error) {
	c, ok := m.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryCartStore) GetCartLines(_ context.Context, cartID int64) ([]domain.CartLine, error) {
	if _, ok := m.carts[cartID]; !ok {
		return nil, repository.ErrCartNotFound
	}
	return m.lines[cartID], nil
}
