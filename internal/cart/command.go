package cart

import "github.com/planetfashion/storefront/internal/catalog"

// Command is a cart state transition. Apply is the single transition
// function; commands carry data only.
type Command interface {
	isCommand()
}

// Add inserts a line item or merges into an existing one with the same
// (product ID, size) key.
type Add struct {
	Product  catalog.Product
	Quantity int
	Size     string
}

// Remove deletes the line item with the given key. No-op when absent.
type Remove struct {
	ProductID int64
	Size      string
}

// SetQuantity replaces the quantity of an existing line item, clamped to
// [1, recorded stock]. No-op when absent.
type SetQuantity struct {
	ProductID int64
	Size      string
	Quantity  int
}

// SyncStock propagates an external stock-truth update into every line item
// of the product, across all sizes, re-clamping quantities.
type SyncStock struct {
	ProductID int64
	Stock     int
}

// Clear resets the cart to empty.
type Clear struct{}

func (Add) isCommand()         {}
func (Remove) isCommand()      {}
func (SetQuantity) isCommand() {}
func (SyncStock) isCommand()   {}
func (Clear) isCommand()       {}

// Apply returns the cart state after applying cmd to items. The input slice
// is never mutated. Line items keep insertion order; no two returned items
// share a (product ID, size) key if the input had none.
func Apply(items []LineItem, cmd Command) []LineItem {
	switch c := cmd.(type) {
	case Add:
		return applyAdd(items, c)
	case Remove:
		out := make([]LineItem, 0, len(items))
		for _, li := range items {
			if !li.matches(c.ProductID, c.Size) {
				out = append(out, li)
			}
		}
		return out
	case SetQuantity:
		out := copyItems(items)
		for i := range out {
			if out[i].matches(c.ProductID, c.Size) {
				out[i].Quantity = clamp(c.Quantity, 1, out[i].Product.Stock)
			}
		}
		return out
	case SyncStock:
		out := copyItems(items)
		for i := range out {
			if out[i].Product.ID == c.ProductID {
				out[i].Product.Stock = c.Stock
				if out[i].Quantity > c.Stock {
					out[i].Quantity = c.Stock
				}
			}
		}
		return out
	case Clear:
		return nil
	default:
		return items
	}
}

func applyAdd(items []LineItem, c Add) []LineItem {
	for i, li := range items {
		if li.matches(c.Product.ID, c.Size) {
			// Merge path: only the quantity changes, clamped to the stock
			// recorded on the existing item. The incoming product record is
			// deliberately ignored; SyncStock is the one way stock moves.
			out := copyItems(items)
			q := li.Quantity + c.Quantity
			if q > li.Product.Stock {
				q = li.Product.Stock
			}
			out[i].Quantity = q
			return out
		}
	}

	// First add of this (product, size) inserts the quantity as given,
	// without clamping to stock. SetQuantity and SyncStock re-clamp later.
	out := copyItems(items)
	return append(out, LineItem{
		Product:  c.Product,
		Size:     c.Size,
		Quantity: c.Quantity,
	})
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
