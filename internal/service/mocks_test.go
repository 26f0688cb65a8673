package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/replay"
	"github.com/fjod/go_cart/order-pricing/internal/repository"
)

// MockCartStore implements CartFinder and totals.LineReader for testing
type MockCartStore struct {
	mu        sync.Mutex
	Carts     map[int64]*domain.Cart
	Lines     map[int64][]domain.CartLine
	Err       error
	LinesErr  error
	ReadCount int
}

func newMockCartStore() *MockCartStore {
	return &MockCartStore{
		Carts: map[int64]*domain.Cart{},
		Lines: map[int64][]domain.CartLine{},
	}
}

func (m *MockCartStore) GetActiveCart(_ context.Context, sessionID string, hubID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCount++
	if m.Err != nil {
		return nil, m.Err
	}
	var found *domain.Cart
	for _, c := range m.Carts {
		if c.SessionID != sessionID || c.HubID != hubID || !c.IsActive() {
			continue
		}
		if found == nil || c.UpdatedAt.After(found.UpdatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, repository.ErrCartNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *MockCartStore) GetCart(_ context.Context, cartID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCount++
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCartStore) GetCartLines(_ context.Context, cartID int64) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCount++
	if m.LinesErr != nil {
		return nil, m.LinesErr
	}
	if _, ok := m.Carts[cartID]; !ok {
		return nil, repository.ErrCartNotFound
	}
	return append([]domain.CartLine{}, m.Lines[cartID]...), nil
}

// MockLedger implements replay.Ledger for testing
type MockLedger struct {
	mu       sync.Mutex
	Redeemed map[string]time.Time
	Err      error
}

func (m *MockLedger) Redeem(_ context.Context, signature string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Redeemed == nil {
		m.Redeemed = map[string]time.Time{}
	}
	if _, ok := m.Redeemed[signature]; ok {
		return replay.ErrAlreadyRedeemed
	}
	m.Redeemed[signature] = expiresAt
	return nil
}

// MockPublisher implements publisher.IntentPublisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	Published []*domain.PaymentIntent
	Err       error
}

func (m *MockPublisher) PublishIntent(_ context.Context, intent *domain.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, intent)
	return nil
}
