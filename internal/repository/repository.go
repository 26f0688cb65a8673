package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/order-pricing/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrUnavailable  = errors.New("cart store unavailable")
)

// CartStore is the read-only view of the cart module used by checkout.
// Implementations return ErrCartNotFound when nothing matches.
type CartStore interface {
	// GetActiveCart returns the most recently updated active cart owned
	// by (sessionID, hubID).
	GetActiveCart(ctx context.Context, sessionID string, hubID int64) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID int64) (*domain.Cart, error)
	// GetCartLines fails with ErrCartNotFound if the cart does not exist;
	// an existing cart may have zero lines.
	GetCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	Ping(ctx context.Context) error
	Close() error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
