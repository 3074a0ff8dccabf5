// Package cart implements the session shopping cart: an ordered list of
// line items mutated through a small set of commands. A line item is
// identified by (product ID, selected size); the same product in two sizes
// is two distinct rows. Mutations never fail: out-of-range quantities are
// clamped and commands addressing a missing line item are no-ops.
package cart

import "github.com/planetfashion/storefront/internal/catalog"

// LineItem is one row in the cart: the product as it looked when added,
// the chosen size, and the quantity held. Product.Stock is the stock
// recorded at add time; SyncStock is the only command that refreshes it.
type LineItem struct {
	Product  catalog.Product
	Size     string
	Quantity int
}

// matches reports whether the line item is identified by the given key.
func (li LineItem) matches(productID int64, size string) bool {
	return li.Product.ID == productID && li.Size == size
}

// Total returns the sum of price x quantity over the given items.
func Total(items []LineItem) int64 {
	var sum int64
	for _, li := range items {
		sum += li.Product.Price * int64(li.Quantity)
	}
	return sum
}

// Units returns the total number of units across all line items.
func Units(items []LineItem) int {
	var n int
	for _, li := range items {
		n += li.Quantity
	}
	return n
}
