// Package consumer ingests the out-of-band payment-status events emitted by
// the payment collaborator and drives the order into pago.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	statusApproved = "approved"
	statusPending  = "pending"
	statusRejected = "rejected"
)

// PaymentStatusEvent is the payload published per payment attempt.
type PaymentStatusEvent struct {
	OrderID      string `json:"order_id"`
	PreferenceID string `json:"preference_id"`
	Status       string `json:"status"`
}

// PaymentConfirmer is implemented by the order service. Confirmation is
// guarded there: a late event never downgrades an order that moved on.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type Consumer struct {
	orders PaymentConfirmer
	reader *kafka.Reader
}

func NewConsumer(orders PaymentConfirmer, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "payment-events",
		GroupID:  "loja-virtual",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{orders: orders, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading payment event: %v", err)
		return
	}

	var event PaymentStatusEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing payment event: %v", err)
		return
	}

	c.Handle(ctx, &event)
}

// Handle applies one event. Split out from the kafka loop so it can be
// exercised directly.
func (c *Consumer) Handle(ctx context.Context, event *PaymentStatusEvent) {
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		log.Printf("invalid order_id %q in payment event: %v", event.OrderID, err)
		return
	}

	switch event.Status {
	case statusApproved:
		confirmed, err := c.orders.ConfirmPayment(ctx, orderID)
		if err != nil {
			log.Printf("failed to confirm payment for order %s: %v", orderID, err)
			return
		}
		if confirmed {
			log.Printf("order %s marked as paid", orderID)
		}
	case statusPending, statusRejected:
		// pending resolves with a later event; rejected keeps the order
		// waiting until the buyer retries or the reconciler reclaims it
	default:
		log.Printf("ignoring payment event with unknown status %q for order %s", event.Status, orderID)
	}
}
