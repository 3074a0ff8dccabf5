package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/planetfashion/storefront/internal/checkout"
)

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	// Processing outlives the request; it is bounded by the handler's base
	// context so shutdown cancels pending orders.
	order, err := sess.Checkout.Begin(h.base)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	case errors.Is(err, checkout.ErrInProgress):
		writeError(w, http.StatusConflict, "checkout already in progress")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	order, err := sess.Checkout.Order(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func encodeOrder(e *jx.Encoder, o *checkout.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("units")
	e.Int(o.Units)
	e.FieldStart("subtotal")
	e.Int64(o.Subtotal)
	e.FieldStart("grandTotal")
	e.Int64(o.GrandTotal)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}
