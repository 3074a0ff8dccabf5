// Package catalog defines the read-only product catalog the storefront
// sells from. Products are externally supplied and immutable for the
// lifetime of the process; the cart records its own view of stock.
package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is in the
// smallest currency unit (paise).
type Product struct {
	ID          int64
	Name        string
	Price       int64
	Image       string
	Category    string
	Description string
	Sizes       []string
	Stock       int
	Rating      decimal.Decimal
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}

// Search returns products whose name or category contains the query,
// case-insensitively, preserving catalog order and capped at limit results.
// An empty query matches nothing.
func Search(products []Product, query string, limit int) []Product {
	if query == "" || limit <= 0 {
		return nil
	}

	q := strings.ToLower(query)
	var out []Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
