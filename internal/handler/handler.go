// Package handler exposes the storefront HTTP API: catalog reads, cart
// commands, checkout, inventory reports, and the demo login. Every cart
// route resolves the caller's session from a cookie; business logic lives
// in the domain packages.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/planetfashion/storefront/internal/auth"
	"github.com/planetfashion/storefront/internal/catalog"
	"github.com/planetfashion/storefront/internal/session"
)

// SessionCookie is the name of the cookie carrying the session ID.
const SessionCookie = "sf_session"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. Empty leaves paths as stored.
	ImageBaseURL string
}

// Handler serves the storefront API.
type Handler struct {
	catalog  catalog.Repository
	sessions *session.Manager
	gate     auth.Gate

	imageBaseURL string

	// base outlives individual requests; checkout processing keeps running
	// after the 202 response and should only stop on shutdown.
	base context.Context
}

// New constructs a Handler. ctx bounds background checkout processing.
func New(ctx context.Context, cfg Config, products catalog.Repository, sessions *session.Manager, gate auth.Gate) *Handler {
	return &Handler{
		catalog:      products,
		sessions:     sessions,
		gate:         gate,
		imageBaseURL: cfg.ImageBaseURL,
		base:         ctx,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.listProducts)
	mux.HandleFunc("GET /api/catalog/search", h.searchProducts)
	mux.HandleFunc("GET /api/catalog/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/cart/items", h.updateItem)
	mux.HandleFunc("DELETE /api/cart/items", h.removeItem)
	mux.HandleFunc("POST /api/cart/stock", h.syncStock)

	mux.HandleFunc("POST /api/checkout", h.beginCheckout)
	mux.HandleFunc("GET /api/checkout/{id}", h.getOrder)

	mux.HandleFunc("GET /api/inventory", h.inventoryLevels)
	mux.HandleFunc("GET /api/inventory/stock.csv", h.stockCSV)
	mux.HandleFunc("GET /api/inventory/sales.csv", h.salesCSV)

	mux.HandleFunc("POST /api/login", h.login)
}

// session resolves the request's session, issuing a fresh one (and cookie)
// when the request carries none or references an evicted session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	s := h.sessions.GetOrCreate(id)
	if s.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError renders the uniform error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}
