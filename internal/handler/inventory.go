package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/planetfashion/storefront/internal/inventory"
)

// levels derives the session's inventory view from the catalog baseline and
// the cart contents.
func (h *Handler) levels(w http.ResponseWriter, r *http.Request) ([]inventory.Level, bool) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("derive inventory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return nil, false
	}

	sess := h.session(w, r)
	return inventory.Derive(products, sess.Cart.Items()), true
}

func (h *Handler) inventoryLevels(w http.ResponseWriter, r *http.Request) {
	levels, ok := h.levels(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, l := range levels {
			e.ObjStart()
			e.FieldStart("productId")
			e.Int64(l.Product.ID)
			e.FieldStart("name")
			e.Str(l.Product.Name)
			e.FieldStart("category")
			e.Str(l.Product.Category)
			e.FieldStart("initial")
			e.Int(l.Product.Stock)
			e.FieldStart("sold")
			e.Int(l.Sold)
			e.FieldStart("current")
			e.Int(l.Current)
			e.FieldStart("status")
			e.Str(string(l.Status))
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

func (h *Handler) stockCSV(w http.ResponseWriter, r *http.Request) {
	levels, ok := h.levels(w, r)
	if !ok {
		return
	}

	report, err := inventory.StockReport(levels)
	if err != nil {
		zctx.From(r.Context()).Error("stock report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	writeCSV(w, r, "stock_report.csv", report)
}

func (h *Handler) salesCSV(w http.ResponseWriter, r *http.Request) {
	levels, ok := h.levels(w, r)
	if !ok {
		return
	}

	report, err := inventory.SalesReport(levels)
	if err != nil {
		zctx.From(r.Context()).Error("sales report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	writeCSV(w, r, "sales_report.csv", report)
}

// writeCSV serves a CSV attachment, gzip-compressed when the client accepts
// it.
func writeCSV(w http.ResponseWriter, r *http.Request, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		gz := pgzip.NewWriter(w)
		_, _ = gz.Write(data)
		_ = gz.Close()
		return
	}
	_, _ = w.Write(data)
}
