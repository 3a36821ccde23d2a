package domain

// Product is the catalog snapshot consumed at cart-build time. The core never
// writes anything here except the stock counter.
type Product struct {
	ID                       int64
	Name                     string
	Price                    float64
	Stock                    int
	WholesaleMinAmount       float64 // 0 means no wholesale rule
	WholesaleDiscountPercent float64
	WeightKg                 float64
	LengthCm                 float64
	HeightCm                 float64
	WidthCm                  float64
}

// HasWholesaleRule reports whether the product carries a volume discount.
func (p *Product) HasWholesaleRule() bool {
	return p.WholesaleMinAmount > 0 && p.WholesaleDiscountPercent > 0
}
