package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/order-pricing/domain"
)

// Prepare quotes the caller's active cart and mints a fresh order token
// over (cart, session). It has no durable side effects.
func (s *CheckoutServiceImpl) Prepare(ctx context.Context, request *domain.PrepareRequest) (*domain.PrepareResponse, error) {
	a := s.begin(ctx, "prepare", domain.CheckoutStateStart)

	if request == nil || blank(request.SessionID) || request.HubID <= 0 {
		return nil, a.fail(ErrMissingFields)
	}

	cart, err := s.carts.GetActiveCart(ctx, request.SessionID, request.HubID)
	if err != nil {
		return nil, a.fail(classifyStoreError(err))
	}
	a.log = a.log.With().Int64("cart_id", cart.ID).Logger()

	breakdown, err := s.totals.Compute(ctx, cart.ID)
	if err != nil {
		return nil, a.fail(classifyStoreError(err))
	}

	token, err := s.tokens.Mint(cart.ID, request.SessionID)
	if err != nil {
		return nil, a.fail(fmt.Errorf("failed to mint order token: %w", err))
	}

	if err := a.moveTo(domain.CheckoutStateQuoted); err != nil {
		return nil, err
	}

	return &domain.PrepareResponse{
		Totals: breakdown,
		CartID: cart.ID,
		HubID:  request.HubID,
		Token:  token,
	}, nil
}
