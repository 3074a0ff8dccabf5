package cart

import (
	"sync"

	"github.com/planetfashion/storefront/internal/catalog"
)

// Store holds one session's cart state. It is an explicit instance, not a
// singleton: every session gets its own Store, and tests construct them
// freely. The mutex serializes commands so every transition is atomic with
// respect to readers; items are the only state, totals are derived.
type Store struct {
	mu    sync.RWMutex
	items []LineItem
}

// New returns an empty cart store.
func New() *Store {
	return &Store{}
}

// Dispatch applies a command to the cart.
func (s *Store) Dispatch(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Apply(s.items, cmd)
}

// Add merges quantity into an existing (product, size) line item or appends
// a new one.
func (s *Store) Add(p catalog.Product, quantity int, size string) {
	s.Dispatch(Add{Product: p, Quantity: quantity, Size: size})
}

// Remove deletes a line item. No-op when absent.
func (s *Store) Remove(productID int64, size string) {
	s.Dispatch(Remove{ProductID: productID, Size: size})
}

// SetQuantity updates a line item's quantity, clamped to [1, stock].
func (s *Store) SetQuantity(productID int64, size string, quantity int) {
	s.Dispatch(SetQuantity{ProductID: productID, Size: size, Quantity: quantity})
}

// SyncStock applies an external stock update to every size of a product.
func (s *Store) SyncStock(productID int64, stock int) {
	s.Dispatch(SyncStock{ProductID: productID, Stock: stock})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.Dispatch(Clear{})
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.items)
}

// TotalPrice returns the sum of price x quantity over the cart.
func (s *Store) TotalPrice() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Total(s.items)
}

// TotalUnits returns the number of units in the cart.
func (s *Store) TotalUnits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Units(s.items)
}

// Snapshot is a consistent view of the cart: the items plus totals computed
// from those same items.
type Snapshot struct {
	Items []LineItem
	Total int64
	Units int
}

// Snapshot returns the items and their totals from a single critical
// section, so the total always equals the sum over the returned items.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Items: copyItems(s.items),
		Total: Total(s.items),
		Units: Units(s.items),
	}
}
