package totals

import "github.com/shopspring/decimal"

// Charges are the amounts a Policy adds on top of the subtotal. They are
// rounded by the Engine, not by the Policy.
type Charges struct {
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	ServiceFee  decimal.Decimal
}

// Policy prices everything that is not a cart line. It must be a pure
// function of the subtotal.
type Policy interface {
	Apply(subtotal decimal.Decimal) Charges
}

// FlatPolicy applies a proportional tax and two flat fees. Fees are not
// charged on an empty subtotal.
type FlatPolicy struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	ServiceFee  decimal.Decimal
}

// ZeroPolicy charges nothing beyond the cart lines.
var ZeroPolicy = FlatPolicy{}

func (p FlatPolicy) Apply(subtotal decimal.Decimal) Charges {
	if !subtotal.IsPositive() {
		return Charges{Tax: decimal.Zero, DeliveryFee: decimal.Zero, ServiceFee: decimal.Zero}
	}
	return Charges{
		Tax:         subtotal.Mul(p.TaxRate),
		DeliveryFee: p.DeliveryFee,
		ServiceFee:  p.ServiceFee,
	}
}
