package inventory

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// StockReport renders the stock snapshot as CSV: one header row, one row
// per catalog product. encoding/csv quotes any field containing the
// delimiter.
func StockReport(levels []Level) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{
		"Product Name", "Category", "Current Stock", "Initial Stock",
		"Sold Quantity", "Status", "Price",
	}}
	for _, l := range levels {
		records = append(records, []string{
			l.Product.Name,
			l.Product.Category,
			strconv.Itoa(l.Current),
			strconv.Itoa(l.Product.Stock),
			strconv.Itoa(l.Sold),
			string(l.Status),
			strconv.FormatInt(l.Product.Price, 10),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, errors.Wrap(err, "write stock report")
	}
	return buf.Bytes(), nil
}

// SalesReport renders the sales snapshot as CSV, covering only products
// with at least one unit sold. Revenue is sold quantity times unit price.
func SalesReport(levels []Level) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{
		"Product Name", "Category", "Sold Quantity", "Revenue", "Price Per Unit",
	}}
	for _, l := range levels {
		if l.Sold == 0 {
			continue
		}
		records = append(records, []string{
			l.Product.Name,
			l.Product.Category,
			strconv.Itoa(l.Sold),
			strconv.FormatInt(int64(l.Sold)*l.Product.Price, 10),
			strconv.FormatInt(l.Product.Price, 10),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, errors.Wrap(err, "write sales report")
	}
	return buf.Bytes(), nil
}

// Reports bundles both snapshots generated from the same derivation.
type Reports struct {
	Stock []byte
	Sales []byte
}

// BuildReports renders the stock and sales snapshots concurrently.
func BuildReports(levels []Level) (Reports, error) {
	var r Reports

	var g errgroup.Group
	g.Go(func() error {
		var err error
		r.Stock, err = StockReport(levels)
		return err
	})
	g.Go(func() error {
		var err error
		r.Sales, err = SalesReport(levels)
		return err
	})
	if err := g.Wait(); err != nil {
		return Reports{}, err
	}
	return r, nil
}
