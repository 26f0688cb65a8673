package totals

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every monetary figure is
// rounded to (half away from zero).
const Places = 2

var ErrCalculation = errors.New("inconsistent cart data")

type LineReader interface {
	GetCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error)
}

// Engine turns cart lines into a TotalsBreakdown. Given the same lines it
// always returns the same breakdown.
type Engine struct {
	lines  LineReader
	policy Policy
}

func NewEngine(lines LineReader, policy Policy) *Engine {
	if policy == nil {
		policy = ZeroPolicy
	}
	return &Engine{lines: lines, policy: policy}
}

// Compute loads the lines of cartID and prices them. Store errors
// (including repository.ErrCartNotFound) are wrapped, not replaced.
func (e *Engine) Compute(ctx context.Context, cartID int64) (domain.TotalsBreakdown, error) {
	lines, err := e.lines.GetCartLines(ctx, cartID)
	if err != nil {
		return domain.TotalsBreakdown{}, fmt.Errorf("failed to load cart lines: %w", err)
	}
	return e.Breakdown(cartID, lines)
}

// Breakdown prices lines without touching the store.
func (e *Engine) Breakdown(cartID int64, lines []domain.CartLine) (domain.TotalsBreakdown, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.CartID != cartID {
			return domain.TotalsBreakdown{}, fmt.Errorf("%w: line %d belongs to cart %d", ErrCalculation, line.ID, line.CartID)
		}
		if line.LineTotal.IsNegative() {
			return domain.TotalsBreakdown{}, fmt.Errorf("%w: line %d has negative total", ErrCalculation, line.ID)
		}
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = subtotal.Round(Places)

	charges := e.policy.Apply(subtotal)
	for _, c := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"tax", charges.Tax},
		{"delivery fee", charges.DeliveryFee},
		{"service fee", charges.ServiceFee},
	} {
		if c.value.IsNegative() {
			return domain.TotalsBreakdown{}, fmt.Errorf("%w: negative %s", ErrCalculation, c.name)
		}
	}

	b := domain.TotalsBreakdown{
		Subtotal:    subtotal,
		Tax:         charges.Tax.Round(Places),
		DeliveryFee: charges.DeliveryFee.Round(Places),
		ServiceFee:  charges.ServiceFee.Round(Places),
	}
	b.Total = b.Subtotal.Add(b.Tax).Add(b.DeliveryFee).Add(b.ServiceFee).Round(Places)
	return b, nil
}
