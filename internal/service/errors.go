package service

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/order-pricing/internal/repository"
	"github.com/fjod/go_cart/order-pricing/internal/totals"
)

// Coarse error kinds returned by the checkout service. Callers match them
// with errors.Is; the wrapped detail is for logs only.
var (
	ErrMissingFields      = errors.New("missing or invalid fields")
	ErrCartNotFound       = errors.New("cart not found")
	ErrInvalidOrderToken  = errors.New("invalid order token")
	ErrCalculationFailure = errors.New("calculation failure")
	ErrUnavailable        = errors.New("service unavailable")

	ErrIllegalTransition = errors.New("illegal transition of checkout state")
)

// classifyStoreError translates cart store and totals errors into the
// service taxonomy. Any other store fault is reported as unavailable.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCartNotFound):
		return fmt.Errorf("%w: %v", ErrCartNotFound, err)
	case errors.Is(err, totals.ErrCalculation):
		return fmt.Errorf("%w: %v", ErrCalculationFailure, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
