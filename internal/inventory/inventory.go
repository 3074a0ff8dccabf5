// Package inventory derives per-product stock levels from the catalog
// baseline and the current cart contents. "Selling" is simulated entirely
// by what sits in the cart; nothing here mutates any state, and the
// derivation is recomputed on every read.
package inventory

import (
	"github.com/planetfashion/storefront/internal/cart"
	"github.com/planetfashion/storefront/internal/catalog"
)

// Status is the stock level band of a product.
type Status string

const (
	StatusOut    Status = "out"
	StatusLow    Status = "low"
	StatusHigh   Status = "high"
	StatusNormal Status = "normal"
)

// Band thresholds: low at or below lowWater remaining units, high at or
// above highWater.
const (
	lowWater  = 5
	highWater = 50
)

// Level is the derived stock view of one catalog product.
type Level struct {
	Product catalog.Product
	// Sold is the number of units of the product held in the cart, summed
	// across all sizes.
	Sold int
	// Current is the baseline stock minus Sold, floored at zero.
	Current int
	Status  Status
}

// Derive computes a Level for every catalog product against the given cart
// items, in catalog order.
func Derive(products []catalog.Product, items []cart.LineItem) []Level {
	soldByID := make(map[int64]int, len(items))
	for _, li := range items {
		soldByID[li.Product.ID] += li.Quantity
	}

	levels := make([]Level, len(products))
	for i, p := range products {
		sold := soldByID[p.ID]
		current := p.Stock - sold
		if current < 0 {
			current = 0
		}
		levels[i] = Level{
			Product: p,
			Sold:    sold,
			Current: current,
			Status:  statusFor(current),
		}
	}
	return levels
}

// statusFor bands the remaining stock. The order matters: a fully sold-out
// product is "out" even when its baseline stock sits in the high band.
func statusFor(current int) Status {
	switch {
	case current == 0:
		return StatusOut
	case current <= lowWater:
		return StatusLow
	case current >= highWater:
		return StatusHigh
	default:
		return StatusNormal
	}
}
