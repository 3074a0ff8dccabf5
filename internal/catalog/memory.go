package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository serves the catalog from memory. It is the default backend
// for the demo: products come from the embedded seed JSON and never change.
type MemoryRepository struct {
	products []Product
	byID     map[int64]int
}

// NewMemoryRepository decodes a JSON product array (the embedded seed
// format) into an in-memory repository.
func NewMemoryRepository(seed []byte) (*MemoryRepository, error) {
	products, err := decodeProducts(seed)
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog seed")
	}

	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if _, dup := byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %d in seed", p.ID)
		}
		byID[p.ID] = i
	}

	return &MemoryRepository{products: products, byID: byID}, nil
}

// List returns all products in seed order.
func (r *MemoryRepository) List(_ context.Context) ([]Product, error) {
	out := make([]Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// GetByID returns a single product by its identifier.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

// decodeProducts parses the seed JSON with jx. Unknown fields are skipped so
// the seed file can carry extra presentation data.
func decodeProducts(seed []byte) ([]Product, error) {
	var products []Product

	d := jx.DecodeBytes(seed)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, err
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = d.Int64()
		case "image":
			p.Image, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "sizes":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.Sizes = append(p.Sizes, s)
				return nil
			})
		case "stock":
			p.Stock, err = d.Int()
		case "rating":
			var f float64
			if f, err = d.Float64(); err == nil {
				p.Rating = decimal.NewFromFloat(f)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return p, err
}
