package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/abarbosa/loja-virtual/internal/events"
	"github.com/abarbosa/loja-virtual/internal/order/domain"
	"github.com/abarbosa/loja-virtual/internal/order/repository"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrEmptyTrackingCode = errors.New("tracking code must not be empty")
)

type OrderService struct {
	repo repository.OrderRepository
	bus  *events.Bus
}

func NewOrderService(repo repository.OrderRepository, bus *events.Bus) *OrderService {
	return &OrderService{repo: repo, bus: bus}
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, ErrUnknownStatus
	}
	return s.repo.ListOrders(ctx, filter)
}

// UpdateStatus is the operator action. The transition table is enforced here
// and again at the data layer: the conditional update keyed on the status we
// read means a concurrent writer cannot be silently overwritten.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.Status) error {
	if !target.IsValid() {
		return ErrUnknownStatus
	}

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	if err := s.repo.UpdateStatusFrom(ctx, id, order.Status, target); err != nil {
		return err
	}

	s.bus.Publish(events.OrderEvent{
		Type:    events.EventStatusChanged,
		OrderID: id,
		Status:  target,
	})
	return nil
}

// ConfirmPayment drives aguardando_pagamento -> pago from the out-of-band
// payment event. Returns false without error when the order already moved on;
// a late confirmation must never downgrade a shipped or cancelled order.
func (s *OrderService) ConfirmPayment(ctx context.Context, id uuid.UUID) (bool, error) {
	err := s.repo.UpdateStatusFrom(ctx, id, domain.StatusWaitingPayment, domain.StatusPaid)
	if errors.Is(err, repository.ErrStatusConflict) {
		log.Printf("payment confirmation for order %s ignored: order no longer waiting", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.bus.Publish(events.OrderEvent{
		Type:    events.EventStatusChanged,
		OrderID: id,
		Status:  domain.StatusPaid,
	})
	return true, nil
}

// SetTrackingCode attaches a tracking code; it does not drive any status
// transition.
func (s *OrderService) SetTrackingCode(ctx context.Context, id uuid.UUID, code string) error {
	if code == "" {
		return ErrEmptyTrackingCode
	}
	if err := s.repo.SetTrackingCode(ctx, id, code); err != nil {
		return err
	}

	s.bus.Publish(events.OrderEvent{
		Type:     events.EventTrackingSet,
		OrderID:  id,
		Tracking: code,
	})
	return nil
}

// RestoreAbandonedStock reclaims reservations from orders that were never
// paid. Safe to call repeatedly; already-reconciled orders restore nothing.
func (s *OrderService) RestoreAbandonedStock(ctx context.Context, staleness time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleness)
	restored, err := s.repo.RestoreAbandonedStock(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if restored > 0 {
		log.Printf("stock reconciler released %d abandoned order(s)", restored)
		s.bus.Publish(events.OrderEvent{
			Type:     events.EventStockRestored,
			Restored: restored,
		})
	}
	return restored, nil
}

// RunReconciler loops the reconciler on a fixed interval until the context is
// cancelled. The manual operator trigger stays available regardless.
func (s *OrderService) RunReconciler(ctx context.Context, interval, staleness time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RestoreAbandonedStock(ctx, staleness); err != nil {
				log.Printf("stock reconciler run failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
