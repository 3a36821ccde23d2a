package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrStatusConflict means the guarded update matched no row: the order
	// moved concurrently or the transition is not the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type ListFilter struct {
	Status   domain.Status // empty = all
	Customer string        // case-insensitive substring on customer name
	Limit    int
}

type OrderRepository interface {
	// CreateOrderReservingStock persists the order and its items and
	// decrements stock for every line in a single transaction. The decrement
	// is conditional ("stock >= requested"); any line that cannot be
	// reserved aborts the whole transaction with InsufficientStockError.
	CreateOrderReservingStock(ctx context.Context, order *domain.Order) error

	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)

	// UpdateStatusFrom flips status only when the current value still equals
	// expected; returns ErrStatusConflict otherwise.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target domain.Status) error

	SetTrackingCode(ctx context.Context, id uuid.UUID, trackingCode string) error
	SetPaymentPreference(ctx context.Context, id uuid.UUID, preferenceID string) error

	// RestoreAbandonedStock cancels every order still waiting for payment
	// created before the cutoff and returns its reserved units to stock, all
	// in one transaction. Idempotent: the status flip is the latch, so a
	// second run restores nothing.
	RestoreAbandonedStock(ctx context.Context, olderThan time.Time) (int, error)
}
