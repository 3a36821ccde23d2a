package repository

import (
	"context"
	"errors"

	"github.com/abarbosa/loja-virtual/internal/cart/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository is the durable side of the buyer session cart. The cache in
// front of it is owned by the service layer.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, sessionID string, productID int64) error
	DeleteCart(ctx context.Context, sessionID string) error
}
