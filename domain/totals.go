package domain

import "github.com/shopspring/decimal"

// TotalsBreakdown is a value computed fresh on every prepare and intent.
// Total equals the sum of the other four components, each rounded to 2dp.
type TotalsBreakdown struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	ServiceFee  decimal.Decimal
	Total       decimal.Decimal
}

// Equal compares all five components numerically.
func (b TotalsBreakdown) Equal(o TotalsBreakdown) bool {
	return b.Subtotal.Equal(o.Subtotal) &&
		b.Tax.Equal(o.Tax) &&
		b.DeliveryFee.Equal(o.DeliveryFee) &&
		b.ServiceFee.Equal(o.ServiceFee) &&
		b.Total.Equal(o.Total)
}
