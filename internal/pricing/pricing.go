// Package pricing computes effective unit prices and line subtotals for cart
// lines, applying the per-product wholesale discount when the line crosses the
// configured minimum amount.
package pricing

import (
	"math"

	"github.com/abarbosa/loja-virtual/internal/cart/domain"
)

// PricedLine is derived from a cart line and never persisted. It must be
// recomputed whenever quantity or the catalog snapshot changes.
type PricedLine struct {
	Line               domain.CartItem
	EffectiveUnitPrice float64
	LineSubtotal       float64
	DiscountApplied    bool
}

// Price evaluates one cart line in isolation. The wholesale threshold is
// tested against the pre-discount subtotal, and the boundary is inclusive:
// a line at exactly the minimum amount qualifies.
func Price(line domain.CartItem) PricedLine {
	raw := round2(line.UnitPrice * float64(line.Quantity))

	priced := PricedLine{
		Line:               line,
		EffectiveUnitPrice: line.UnitPrice,
		LineSubtotal:       raw,
	}

	if line.WholesaleMinAmount <= 0 || line.WholesaleDiscountPercent <= 0 {
		return priced
	}

	if raw >= line.WholesaleMinAmount {
		priced.EffectiveUnitPrice = round2(line.UnitPrice * (1 - line.WholesaleDiscountPercent/100))
		priced.LineSubtotal = round2(priced.EffectiveUnitPrice * float64(line.Quantity))
		priced.DiscountApplied = true
	}

	return priced
}

// PriceAll prices every line independently; there is no cross-product
// bundling. Returns the priced lines and the cart subtotal.
func PriceAll(lines []domain.CartItem) ([]PricedLine, float64) {
	priced := make([]PricedLine, len(lines))
	var subtotal float64
	for i, line := range lines {
		priced[i] = Price(line)
		subtotal += priced[i].LineSubtotal
	}
	return priced, round2(subtotal)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
