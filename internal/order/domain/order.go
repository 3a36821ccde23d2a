package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is an immutable snapshot of pricing at order time. unit_price is
// the effective (post-discount) price; totals are never recomputed from the
// current catalog.
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	CEP        string `json:"cep,omitempty"`
}

type Order struct {
	ID                  uuid.UUID   `json:"id"`
	BuyerID             string      `json:"buyer_id"`
	CustomerName        string      `json:"customer_name"`
	CustomerPhone       string      `json:"customer_phone"`
	Address             Address     `json:"address"`
	Items               []OrderItem `json:"items"`
	Subtotal            float64     `json:"subtotal"`
	ShippingCost        float64     `json:"shipping_cost"`
	ShippingMethod      string      `json:"shipping_method"`
	Total               float64     `json:"total"`
	Status              Status      `json:"status"`
	TrackingCode        string      `json:"tracking_code,omitempty"`
	PaymentPreferenceID string      `json:"payment_preference_id,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}
