package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const CurrencyUSD = "usd"

// PaymentIntent is the placeholder handed to a future payment processor.
type PaymentIntent struct {
	ID        string
	Amount    decimal.Decimal
	Currency  string
	CartID    int64
	Totals    TotalsBreakdown
	CreatedAt time.Time
}
