package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem carries the catalog snapshot taken when the item was added, so the
// cart can be priced and quoted for shipping without re-reading the catalog.
type CartItem struct {
	ProductID                int64     `bson:"product_id" json:"product_id"`
	ProductName              string    `bson:"product_name" json:"product_name"`
	UnitPrice                float64   `bson:"unit_price" json:"unit_price"`
	Quantity                 int       `bson:"quantity" json:"quantity"`
	StockSnapshot            int       `bson:"stock_snapshot" json:"stock_snapshot"`
	WholesaleMinAmount       float64   `bson:"wholesale_min_amount" json:"wholesale_min_amount"`
	WholesaleDiscountPercent float64   `bson:"wholesale_discount_percent" json:"wholesale_discount_percent"`
	WeightKg                 float64   `bson:"weight_kg" json:"weight_kg"`
	LengthCm                 float64   `bson:"length_cm" json:"length_cm"`
	HeightCm                 float64   `bson:"height_cm" json:"height_cm"`
	WidthCm                  float64   `bson:"width_cm" json:"width_cm"`
	AddedAt                  time.Time `bson:"added_at" json:"added_at"`
}
