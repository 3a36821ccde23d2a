// Package events is the in-process subscribe/notify channel used to push
// order changes to operator sessions without polling.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventStatusChanged  EventType = "status_changed"
	EventTrackingSet    EventType = "tracking_set"
	EventStockRestored  EventType = "stock_restored"
	EventPaymentPending EventType = "payment_pending"
)

type OrderEvent struct {
	Type       EventType     `json:"type"`
	OrderID    uuid.UUID     `json:"order_id,omitempty"`
	Status     domain.Status `json:"status,omitempty"`
	Tracking   string        `json:"tracking,omitempty"`
	Restored   int           `json:"restored,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// subscriber buffer; a slow operator UI drops events instead of stalling the
// checkout path.
const subscriberBuffer = 64

type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan OrderEvent
	next        uint64
	closed      bool
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[uint64]chan OrderEvent)}
}

// Subscribe registers a listener. Events arrive in publish order. The caller
// must call the returned cancel func when done; the channel is closed then.
func (b *Bus) Subscribe() (<-chan OrderEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan OrderEvent, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(event OrderEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default: // full buffer, drop for this subscriber
		}
	}
}

// Close shuts every subscriber channel down. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
