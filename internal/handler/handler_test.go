package handler

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planetfashion/storefront/internal/auth"
	"github.com/planetfashion/storefront/internal/catalog"
	"github.com/planetfashion/storefront/internal/checkout"
	"github.com/planetfashion/storefront/internal/session"
)

const testSeed = `[
  {"id": 1, "name": "Classic Tee", "price": 899, "image": "/images/tee.jpg",
   "category": "T-Shirts", "description": "Soft cotton tee",
   "sizes": ["S", "M", "L"], "stock": 15, "rating": 4.5},
  {"id": 2, "name": "Slim Jeans", "price": 1799, "image": "/images/jeans.jpg",
   "category": "Jeans", "description": "Stretch denim",
   "sizes": ["30", "32", "34"], "stock": 60, "rating": 4.2},
  {"id": 3, "name": "Leather Belt", "price": 1250, "image": "/images/belt.jpg",
   "category": "Accessories", "description": "Full grain leather",
   "sizes": [], "stock": 3, "rating": 4.8},
  {"id": 4, "name": "Denim Jacket", "price": 2999, "image": "/images/jacket.jpg",
   "category": "Jackets", "description": "Vintage wash",
   "sizes": ["M", "L"], "stock": 0, "rating": 4.0}
]`

// client drives the API through the mux while carrying the session cookie
// across requests, like a browser would.
type client struct {
	t      *testing.T
	mux    *http.ServeMux
	cookie *http.Cookie
}

func newClient(t *testing.T, opts ...func(*Config, *checkout.Config)) *client {
	t.Helper()

	cfg := Config{}
	checkoutCfg := checkout.Config{
		ProcessingDelay: 20 * time.Millisecond,
		TaxRate:         checkout.DefaultConfig().TaxRate,
	}
	for _, opt := range opts {
		opt(&cfg, &checkoutCfg)
	}

	repo, err := catalog.NewMemoryRepository([]byte(testSeed))
	require.NoError(t, err)

	sessions := session.NewManager(time.Hour, checkoutCfg)
	gate := auth.NewStaticGate("dev", "dev")

	h := New(context.Background(), cfg, repo, sessions, gate)
	mux := http.NewServeMux()
	h.Register(mux)

	return &client{t: t, mux: mux}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.mux.ServeHTTP(w, req)

	for _, set := range w.Result().Cookies() {
		if set.Name == SessionCookie {
			c.cookie = set
		}
	}
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var body []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestListProducts(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	products := decodeList(t, w)
	require.Len(t, products, 4)
	assert.Equal(t, "Classic Tee", products[0]["name"])
	assert.Equal(t, float64(899), products[0]["price"])
	assert.Equal(t, float64(4.5), products[0]["rating"])
}

func TestGetProduct(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/catalog/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Slim Jeans", body["name"])

	w = c.do(http.MethodGet, "/api/catalog/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product not found", decodeBody(t, w)["message"])

	w = c.do(http.MethodGet, "/api/catalog/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct_ImageBaseURL(t *testing.T) {
	c := newClient(t, func(cfg *Config, _ *checkout.Config) {
		cfg.ImageBaseURL = "https://cdn.example.com/"
	})

	w := c.do(http.MethodGet, "/api/catalog/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.example.com/images/tee.jpg", decodeBody(t, w)["image"])
}

func TestSearchProducts(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/catalog/search?q=jea", "")
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeList(t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "Slim Jeans", results[0]["name"])

	// Category matches too.
	w = c.do(http.MethodGet, "/api/catalog/search?q=access", "")
	results = decodeList(t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "Leather Belt", results[0]["name"])

	// Empty query matches nothing.
	w = c.do(http.MethodGet, "/api/catalog/search", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeList(t, w))
}

func TestCart_SessionCookieIssued(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)

	// The same cookie keeps the same cart.
	first := c.cookie.Value
	c.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, first, c.cookie.Value)
}

func TestCart_AddAndTotals(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 3, "size": "M"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2697), body["total"])
	assert.Equal(t, float64(3), body["units"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "M", item["size"])
	assert.Equal(t, float64(2697), item["lineTotal"])
}

func TestCart_AddDefaultsQuantityAndSize(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/cart/items", `{"productId": 1}`)
	require.Equal(t, http.StatusOK, w.Code)

	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, "S", item["size"])
}

func TestCart_AddMergeClampsToStock(t *testing.T) {
	c := newClient(t)

	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 10, "size": "M"}`)
	w := c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 10, "size": "M"}`)

	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(15), items[0].(map[string]any)["quantity"])
}

func TestCart_AddValidation(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/cart/items", `{"quantity": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "size": "XXL"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown size", decodeBody(t, w)["message"])

	w = c.do(http.MethodPost, "/api/cart/items", `{"productId": 999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodPost, "/api/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2, "size": "M"}`)

	// Clamped to stock.
	w := c.do(http.MethodPatch, "/api/cart/items", `{"productId": 1, "size": "M", "quantity": 99}`)
	items := decodeBody(t, w)["items"].([]any)
	assert.Equal(t, float64(15), items[0].(map[string]any)["quantity"])

	// Clamped up to 1.
	w = c.do(http.MethodPatch, "/api/cart/items", `{"productId": 1, "size": "M", "quantity": 0}`)
	items = decodeBody(t, w)["items"].([]any)
	assert.Equal(t, float64(1), items[0].(map[string]any)["quantity"])

	// Unknown line item is a no-op.
	w = c.do(http.MethodPatch, "/api/cart/items", `{"productId": 2, "size": "30", "quantity": 5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["items"].([]any), 1)
}

func TestCart_RemoveItem(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 1, "size": "M"}`)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 1, "size": "L"}`)

	w := c.do(http.MethodDelete, "/api/cart/items", `{"productId": 1, "size": "M"}`)
	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "L", items[0].(map[string]any)["size"])
}

func TestCart_StockSync(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 10, "size": "M"}`)

	w := c.do(http.MethodPost, "/api/cart/stock", `{"productId": 1, "stock": 4}`)
	items := decodeBody(t, w)["items"].([]any)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(4), item["quantity"])
	assert.Equal(t, float64(4), item["stock"])

	w = c.do(http.MethodPost, "/api/cart/stock", `{"productId": 1, "stock": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_Clear(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2, "size": "M"}`)

	w := c.do(http.MethodDelete, "/api/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["total"])
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	a := newClient(t)
	a.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2, "size": "M"}`)

	b := &client{t: t, mux: a.mux}
	w := b.do(http.MethodGet, "/api/cart", "")
	assert.Empty(t, decodeBody(t, w)["items"])
}

func TestCheckout_Flow(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 3, "size": "M"}`)

	w := c.do(http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	body := decodeBody(t, w)
	orderID := body["id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, float64(2697), body["subtotal"])
	assert.Equal(t, float64(3182), body["grandTotal"])

	// After the processing delay the order confirms and the cart clears.
	require.Eventually(t, func() bool {
		w := c.do(http.MethodGet, "/api/checkout/"+orderID, "")
		return decodeBody(t, w)["status"] == "confirmed"
	}, time.Second, 5*time.Millisecond)

	w = c.do(http.MethodGet, "/api/cart", "")
	assert.Empty(t, decodeBody(t, w)["items"])
}

func TestCheckout_EmptyCart(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", decodeBody(t, w)["message"])
}

func TestCheckout_AlreadyInProgress(t *testing.T) {
	c := newClient(t, func(_ *Config, cc *checkout.Config) {
		cc.ProcessingDelay = time.Minute
	})
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 1, "size": "M"}`)

	w := c.do(http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	w = c.do(http.MethodPost, "/api/checkout", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "checkout already in progress", decodeBody(t, w)["message"])
}

func TestCheckout_OrderNotFound(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/checkout/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInventory_Levels(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 3, "quantity": 3}`)

	w := c.do(http.MethodGet, "/api/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)

	levels := decodeList(t, w)
	require.Len(t, levels, 4)

	byName := make(map[string]map[string]any, len(levels))
	for _, l := range levels {
		byName[l["name"].(string)] = l
	}

	belt := byName["Leather Belt"]
	assert.Equal(t, float64(3), belt["sold"])
	assert.Equal(t, float64(0), belt["current"])
	assert.Equal(t, "out", belt["status"])

	assert.Equal(t, "high", byName["Slim Jeans"]["status"])
	assert.Equal(t, "out", byName["Denim Jacket"]["status"])
	assert.Equal(t, "normal", byName["Classic Tee"]["status"])
}

func TestInventory_StockCSV(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2, "size": "M"}`)

	w := c.do(http.MethodGet, "/api/inventory/stock.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "stock_report.csv")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "Product Name,Category,Current Stock,Initial Stock,Sold Quantity,Status,Price"))
	assert.Contains(t, body, "Classic Tee,T-Shirts,13,15,2,normal,899")
}

func TestInventory_SalesCSVSkipsUnsold(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId": 1, "quantity": 2, "size": "M"}`)

	w := c.do(http.MethodGet, "/api/inventory/sales.csv", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Classic Tee,T-Shirts,2,1798,899")
	assert.NotContains(t, body, "Slim Jeans")
}

func TestInventory_CSVGzip(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/stock.csv", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	c.mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gz.Close()

	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Product Name,Category")
}

func TestLogin(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/api/login", `{"username": "dev", "password": "dev"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dev", body["username"])

	w = c.do(http.MethodPost, "/api/login", `{"username": "dev", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, w)["message"])

	w = c.do(http.MethodPost, "/api/login", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
