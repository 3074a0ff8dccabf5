package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planetfashion/storefront/internal/cart"
	"github.com/planetfashion/storefront/internal/catalog"
)

func testConfig() Config {
	return Config{
		ProcessingDelay: 10 * time.Millisecond,
		TaxRate:         decimal.New(18, -2),
	}
}

func newCartWith(price int64, qty int) *cart.Store {
	s := cart.New()
	s.Add(catalog.Product{ID: 1, Name: "Tee", Price: price, Stock: 100}, qty, "M")
	return s
}

func TestBegin_EmptyCart(t *testing.T) {
	p := NewProcessor(testConfig(), cart.New())

	_, err := p.Begin(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestBegin_ConfirmsAndClearsCart(t *testing.T) {
	c := newCartWith(899, 3)
	p := NewProcessor(testConfig(), c)

	o, err := p.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 3, o.Units)
	assert.Equal(t, int64(2697), o.Subtotal)
	// round(2697 * 1.18) = round(3182.46) = 3182
	assert.Equal(t, int64(3182), o.GrandTotal)

	require.Eventually(t, func() bool {
		got, err := p.Order(o.ID)
		return err == nil && got.Status == StatusConfirmed
	}, time.Second, time.Millisecond)

	assert.Empty(t, c.Items(), "cart clears when the order confirms")
}

func TestBegin_RejectsReentryWhilePending(t *testing.T) {
	c := newCartWith(500, 1)
	p := NewProcessor(Config{ProcessingDelay: time.Minute, TaxRate: decimal.New(18, -2)}, c)

	_, err := p.Begin(context.Background())
	require.NoError(t, err)

	_, err = p.Begin(context.Background())
	require.ErrorIs(t, err, ErrInProgress)
}

func TestBegin_AllowedAgainAfterConfirm(t *testing.T) {
	c := newCartWith(500, 1)
	p := NewProcessor(testConfig(), c)

	o, err := p.Begin(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := p.Order(o.ID)
		return got != nil && got.Status == StatusConfirmed
	}, time.Second, time.Millisecond)

	c.Add(catalog.Product{ID: 2, Price: 100, Stock: 10}, 1, "S")
	_, err = p.Begin(context.Background())
	require.NoError(t, err)
}

func TestBegin_CancelledContextSkipsClear(t *testing.T) {
	c := newCartWith(500, 2)
	p := NewProcessor(Config{ProcessingDelay: time.Minute, TaxRate: decimal.New(18, -2)}, c)

	ctx, cancel := context.WithCancel(context.Background())
	o, err := p.Begin(ctx)
	require.NoError(t, err)

	cancel()

	require.Eventually(t, func() bool {
		got, _ := p.Order(o.ID)
		return got != nil && got.Status == StatusCancelled
	}, time.Second, time.Millisecond)

	assert.Len(t, c.Items(), 1, "a cancelled checkout must not clear the cart")

	// The busy flag releases on cancellation too.
	_, err = p.Begin(context.Background())
	require.NoError(t, err)
}

func TestOrder_NotFound(t *testing.T) {
	p := NewProcessor(testConfig(), cart.New())

	_, err := p.Order("nope")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGrandTotal_Rounding(t *testing.T) {
	rate := decimal.New(18, -2)

	tests := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{899, 1061},   // 1060.82
		{2697, 3182},  // 3182.46
		{1250, 1475},  // exact
		{13485, 15912}, // 15912.30
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grandTotal(tt.subtotal, rate), "subtotal=%d", tt.subtotal)
	}
}
