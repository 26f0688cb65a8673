package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
	CartStatusAbandoned  CartStatus = "abandoned"
)

// Cart is owned by the cart module; this service only reads it.
type Cart struct {
	ID        int64
	SessionID string
	HubID     int64
	Status    CartStatus
	Total     decimal.Decimal
	UpdatedAt time.Time
}

func (c *Cart) IsActive() bool {
	return c.Status == CartStatusActive
}

// CartLine carries a line total already computed by the cart module
// (unit price x quantity). It is never re-derived here.
type CartLine struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int32
	LineTotal decimal.Decimal
}
