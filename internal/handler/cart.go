package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/planetfashion/storefront/internal/cart"
	"github.com/planetfashion/storefront/internal/catalog"
)

// cartMutation is the decoded body shared by the cart item routes. Which
// fields are required depends on the route.
type cartMutation struct {
	ProductID int64
	Quantity  int
	Size      string
	Stock     int

	hasQuantity bool
	hasStock    bool
}

func decodeCartMutation(r *http.Request) (cartMutation, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return cartMutation{}, errors.Wrap(err, "read body")
	}

	var m cartMutation
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			m.ProductID, err = d.Int64()
		case "quantity":
			m.Quantity, err = d.Int()
			m.hasQuantity = true
		case "size":
			m.Size, err = d.Str()
		case "stock":
			m.Stock, err = d.Int()
			m.hasStock = true
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return cartMutation{}, err
	}
	return m, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	writeSnapshot(w, sess.Cart.Snapshot())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	sess.Cart.Clear()
	writeSnapshot(w, sess.Cart.Snapshot())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	m, err := decodeCartMutation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if m.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if !m.hasQuantity {
		m.Quantity = 1
	}
	if m.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	p, err := h.catalog.GetByID(r.Context(), m.ProductID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("add item", zap.Int64("product_id", m.ProductID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	size := m.Size
	if len(p.Sizes) > 0 {
		if size == "" {
			// The storefront preselects the first size.
			size = p.Sizes[0]
		} else if !hasSize(p.Sizes, size) {
			writeError(w, http.StatusBadRequest, "unknown size")
			return
		}
	}

	sess := h.session(w, r)
	sess.Cart.Add(*p, m.Quantity, size)
	writeSnapshot(w, sess.Cart.Snapshot())
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	m, err := decodeCartMutation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if m.ProductID <= 0 || !m.hasQuantity {
		writeError(w, http.StatusBadRequest, "productId and quantity are required")
		return
	}

	sess := h.session(w, r)
	sess.Cart.SetQuantity(m.ProductID, m.Size, m.Quantity)
	writeSnapshot(w, sess.Cart.Snapshot())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	m, err := decodeCartMutation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if m.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	sess := h.session(w, r)
	sess.Cart.Remove(m.ProductID, m.Size)
	writeSnapshot(w, sess.Cart.Snapshot())
}

func (h *Handler) syncStock(w http.ResponseWriter, r *http.Request) {
	m, err := decodeCartMutation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if m.ProductID <= 0 || !m.hasStock {
		writeError(w, http.StatusBadRequest, "productId and stock are required")
		return
	}
	if m.Stock < 0 {
		writeError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	sess := h.session(w, r)
	sess.Cart.SyncStock(m.ProductID, m.Stock)
	writeSnapshot(w, sess.Cart.Snapshot())
}

func hasSize(sizes []string, size string) bool {
	for _, s := range sizes {
		if s == size {
			return true
		}
	}
	return false
}

func writeSnapshot(w http.ResponseWriter, snap cart.Snapshot) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeSnapshot(e, snap)
	})
}

func encodeSnapshot(e *jx.Encoder, snap cart.Snapshot) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, li := range snap.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(li.Product.ID)
		e.FieldStart("name")
		e.Str(li.Product.Name)
		e.FieldStart("price")
		e.Int64(li.Product.Price)
		e.FieldStart("image")
		e.Str(li.Product.Image)
		e.FieldStart("size")
		e.Str(li.Size)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.FieldStart("stock")
		e.Int(li.Product.Stock)
		e.FieldStart("lineTotal")
		e.Int64(li.Product.Price * int64(li.Quantity))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int64(snap.Total)
	e.FieldStart("units")
	e.Int(snap.Units)
	e.ObjEnd()
}
