package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/abarbosa/loja-virtual/internal/cart/domain"
	catalogrepo "github.com/abarbosa/loja-virtual/internal/catalog/repository"
	"github.com/abarbosa/loja-virtual/internal/events"
	orderdomain "github.com/abarbosa/loja-virtual/internal/order/domain"
	orderrepo "github.com/abarbosa/loja-virtual/internal/order/repository"
	"github.com/abarbosa/loja-virtual/internal/payment"
	"github.com/abarbosa/loja-virtual/internal/pricing"
	"github.com/abarbosa/loja-virtual/internal/shipping"
)

type CheckoutRequest struct {
	SessionID        string
	CustomerName     string
	CustomerPhone    string
	Address          orderdomain.Address
	SelectedShipping shipping.Option
}

type CheckoutResult struct {
	OrderID            uuid.UUID
	PaymentRedirectURL string
}

// CartStore is the slice of the cart service checkout needs.
type CartStore interface {
	GetCart(ctx context.Context, sessionID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CheckoutService struct {
	carts          CartStore
	catalog        catalogrepo.CatalogRepository
	orders         orderrepo.OrderRepository
	gateway        payment.Gateway
	bus            *events.Bus
	paymentTimeout time.Duration
}

func NewCheckoutService(
	carts CartStore,
	catalog catalogrepo.CatalogRepository,
	orders orderrepo.OrderRepository,
	gateway payment.Gateway,
	bus *events.Bus,
	paymentTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		carts:          carts,
		catalog:        catalog,
		orders:         orders,
		gateway:        gateway,
		bus:            bus,
		paymentTimeout: paymentTimeout,
	}
}

// Checkout turns the session cart into a persisted order plus a payment
// handoff. Order persistence and stock reservation are one transaction; a
// payment failure after that point keeps the order retryable instead of
// rolling anything back.
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if err := validateAddress(req.Address); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.verifyStock(ctx, cart.Items); err != nil {
		return nil, err
	}

	priced, subtotal := pricing.PriceAll(cart.Items)

	order := &orderdomain.Order{
		ID:             uuid.New(),
		BuyerID:        req.SessionID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Address:        req.Address,
		Items:          make([]orderdomain.OrderItem, len(priced)),
		Subtotal:       subtotal,
		ShippingCost:   req.SelectedShipping.Price,
		ShippingMethod: req.SelectedShipping.Service,
		Total:          subtotal + req.SelectedShipping.Price,
		Status:         orderdomain.StatusWaitingPayment,
	}
	for i, line := range priced {
		order.Items[i] = orderdomain.OrderItem{
			ProductID:   line.Line.ProductID,
			ProductName: line.Line.ProductName,
			Quantity:    line.Line.Quantity,
			UnitPrice:   line.EffectiveUnitPrice,
		}
	}

	// Insert plus conditional stock decrements; a concurrent checkout racing
	// for the last units loses here, not at the pre-check.
	if err := s.orders.CreateOrderReservingStock(ctx, order); err != nil {
		return nil, err
	}

	s.bus.Publish(events.OrderEvent{
		Type:    events.EventOrderCreated,
		OrderID: order.ID,
		Status:  order.Status,
	})

	redirectURL, payErr := s.requestPayment(ctx, order)
	if payErr != nil {
		log.Printf("payment handoff failed for order %s: %v", order.ID, payErr)
		return &CheckoutResult{OrderID: order.ID},
			fmt.Errorf("%w: %v", ErrPaymentRequestFailed, payErr)
	}

	if err := s.carts.ClearCart(ctx, req.SessionID); err != nil {
		// order and payment are done; an undead cart is an annoyance, not a loss
		log.Printf("failed to clear cart for session %s: %v", req.SessionID, err)
	}

	return &CheckoutResult{
		OrderID:            order.ID,
		PaymentRedirectURL: redirectURL,
	}, nil
}

// RetryPayment creates a new payment preference for an order whose previous
// handoff failed. No new order or reservation is created.
func (s *CheckoutService) RetryPayment(ctx context.Context, orderID uuid.UUID) (*CheckoutResult, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderdomain.StatusWaitingPayment {
		return nil, ErrOrderNotPayable
	}

	redirectURL, payErr := s.requestPayment(ctx, order)
	if payErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentRequestFailed, payErr)
	}

	return &CheckoutResult{
		OrderID:            order.ID,
		PaymentRedirectURL: redirectURL,
	}, nil
}

func (s *CheckoutService) requestPayment(ctx context.Context, order *orderdomain.Order) (string, error) {
	payCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()

	pref, err := s.gateway.CreatePreference(payCtx, order)
	if err != nil {
		return "", err
	}

	if err := s.orders.SetPaymentPreference(ctx, order.ID, pref.ID); err != nil {
		log.Printf("failed to record preference %s on order %s: %v", pref.ID, order.ID, err)
	}
	return pref.RedirectURL, nil
}

func validateAddress(addr orderdomain.Address) error {
	if strings.TrimSpace(addr.Street) == "" {
		return ErrMissingStreet
	}
	if strings.TrimSpace(addr.Number) == "" {
		return ErrMissingStreetNumber
	}
	return nil
}
