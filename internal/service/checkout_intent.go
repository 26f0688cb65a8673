package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/ordertoken"
	"github.com/fjod/go_cart/order-pricing/internal/replay"
)

// Intent verifies the order token against the supplied cart and session,
// recomputes the totals from the store and issues a payment intent for
// the recomputed total. No client-sent amount is ever consulted.
func (s *CheckoutServiceImpl) Intent(ctx context.Context, request *domain.IntentRequest) (*domain.PaymentIntent, error) {
	a := s.begin(ctx, "intent", domain.CheckoutStateQuoted)

	if request == nil || blank(request.SessionID) || request.HubID <= 0 ||
		request.CartID <= 0 || blank(request.OrderToken) {
		return nil, a.fail(ErrMissingFields)
	}
	a.log = a.log.With().Int64("cart_id", request.CartID).Logger()

	payload, err := s.tokens.Verify(request.OrderToken, request.CartID, request.SessionID)
	if err != nil {
		// the specific codec failure is logged but never returned
		return nil, a.fail(fmt.Errorf("%w: %v", ErrInvalidOrderToken, err))
	}

	cart, err := s.carts.GetCart(ctx, request.CartID)
	if err != nil {
		return nil, a.fail(classifyStoreError(err))
	}
	if !cart.IsActive() || cart.SessionID != request.SessionID || cart.HubID != request.HubID {
		return nil, a.fail(fmt.Errorf("%w: cart %d is not the caller's active cart", ErrCartNotFound, cart.ID))
	}

	breakdown, err := s.totals.Compute(ctx, request.CartID)
	if err != nil {
		return nil, a.fail(classifyStoreError(err))
	}

	if s.ledger != nil {
		err := s.ledger.Redeem(ctx, ordertoken.Signature(request.OrderToken), time.Unix(payload.ExpiresAt, 0))
		if errors.Is(err, replay.ErrAlreadyRedeemed) {
			return nil, a.fail(fmt.Errorf("%w: %v", ErrInvalidOrderToken, err))
		}
		if err != nil {
			return nil, a.fail(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
	}

	intent := &domain.PaymentIntent{
		ID:        newIntentID(),
		Amount:    breakdown.Total,
		Currency:  domain.CurrencyUSD,
		CartID:    request.CartID,
		Totals:    breakdown,
		CreatedAt: s.now().UTC(),
	}

	if s.publisher != nil {
		if err := s.publisher.PublishIntent(ctx, intent); err != nil {
			return nil, a.fail(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
	}

	if err := a.moveTo(domain.CheckoutStateIntentCreated); err != nil {
		return nil, err
	}
	a.log.Info().Str("intent_id", intent.ID).Str("amount", intent.Amount.StringFixed(2)).Msg("payment intent created")

	return intent, nil
}
