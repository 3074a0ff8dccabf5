// Package checkout simulates the payment flow: a begun checkout sits
// pending for a fixed processing delay, then clears the cart exactly once
// and records a confirmed order. There is no real payment integration; the
// delay stands in for it.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/planetfashion/storefront/internal/cart"
)

var (
	// ErrEmptyCart is returned when checkout is begun with no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInProgress is returned when a prior checkout timer is still pending.
	ErrInProgress = errors.New("checkout already in progress")
	// ErrOrderNotFound is returned when looking up an unknown order.
	ErrOrderNotFound = errors.New("order not found")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Order is the confirmation record of a checkout.
type Order struct {
	ID string
	// Units is the number of units across the cart at checkout time.
	Units int
	// Subtotal is the cart total before tax, in the smallest currency unit.
	Subtotal int64
	// GrandTotal is the subtotal with GST applied, rounded to the nearest
	// unit.
	GrandTotal int64
	Status     Status
	CreatedAt  time.Time
}

// Config controls the simulated processing.
type Config struct {
	// ProcessingDelay is how long an order stays pending before it
	// confirms and the cart clears.
	ProcessingDelay time.Duration
	// TaxRate is the GST fraction added on top of the subtotal.
	TaxRate decimal.Decimal
}

// DefaultConfig mirrors the storefront's observed behavior: a two second
// payment simulation and 18% GST.
func DefaultConfig() Config {
	return Config{
		ProcessingDelay: 2 * time.Second,
		TaxRate:         decimal.New(18, -2),
	}
}

// Processor owns the checkout flow for a single session's cart. At most one
// checkout is pending at a time; Begin while one is in flight returns
// ErrInProgress rather than arming a second clear.
type Processor struct {
	cfg  Config
	cart *cart.Store

	mu      sync.Mutex
	pending bool
	orders  map[string]*Order
}

// NewProcessor creates a Processor for the given cart.
func NewProcessor(cfg Config, c *cart.Store) *Processor {
	if cfg.ProcessingDelay <= 0 {
		cfg.ProcessingDelay = DefaultConfig().ProcessingDelay
	}
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = DefaultConfig().TaxRate
	}
	return &Processor{
		cfg:    cfg,
		cart:   c,
		orders: make(map[string]*Order),
	}
}

// Begin snapshots the cart and starts the processing timer. After the delay
// elapses the cart is cleared once and the order confirms. Cancelling ctx
// before the delay elapses cancels the order and leaves the cart untouched.
func (p *Processor) Begin(ctx context.Context) (*Order, error) {
	snap := p.cart.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}

	p.mu.Lock()
	if p.pending {
		p.mu.Unlock()
		return nil, ErrInProgress
	}
	p.pending = true

	o := &Order{
		ID:         uuid.New().String(),
		Units:      snap.Units,
		Subtotal:   snap.Total,
		GrandTotal: grandTotal(snap.Total, p.cfg.TaxRate),
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}
	p.orders[o.ID] = o
	p.mu.Unlock()

	go p.process(ctx, o.ID)

	result := *o
	return &result, nil
}

// process waits out the delay, then confirms the order and clears the cart.
func (p *Processor) process(ctx context.Context, orderID string) {
	timer := time.NewTimer(p.cfg.ProcessingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		p.finish(orderID, StatusCancelled)
	case <-timer.C:
		p.cart.Clear()
		p.finish(orderID, StatusConfirmed)
	}
}

func (p *Processor) finish(orderID string, status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o, ok := p.orders[orderID]; ok {
		o.Status = status
	}
	p.pending = false
}

// Order returns a copy of the order with the given ID.
func (p *Processor) Order(id string) (*Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	result := *o
	return &result, nil
}

// grandTotal applies the tax rate to the subtotal and rounds to the nearest
// whole currency unit.
func grandTotal(subtotal int64, taxRate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(1).Add(taxRate)).
		Round(0).
		IntPart()
}
