package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/msmelab/go-commerce/internal/inventory"
)

var ErrEmptyOrder = errors.New("order has no lines")

// ProductNotFoundError names the offending line of a rejected order.
type ProductNotFoundError struct{ ProductID string }

func (e *ProductNotFoundError) Error() string { return "product not found: " + e.ProductID }
func (e *ProductNotFoundError) Unwrap() error { return inventory.ErrProductNotFound }

// InvalidQuantityError rejects non-positive quantities before any store call.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}

// Engine places orders: it reserves stock line by line against the Inventory
// store, prices each line at reservation time, and appends the order to the
// Ledger. Any failure releases every reservation already taken for the order,
// in reverse, so a rejected or failed order leaves stock untouched.
//
// One PlaceOrder call is sequential internally; many calls run concurrently
// against shared inventory, serialized per product by Store.Reserve.
type Engine struct {
	Inventory inventory.Store
	Ledger    Ledger

	// Timeout bounds one PlaceOrder call. Zero means no bound. Hitting the
	// deadline is treated like any transient store failure: reservations
	// held so far are rolled back.
	Timeout time.Duration
}

type reserved struct {
	productID string
	qty       int
}

func (e *Engine) PlaceOrder(ctx context.Context, userID string, lines []LineRequest) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Order{}, &InvalidQuantityError{ProductID: l.ProductID, Quantity: l.Quantity}
		}
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var (
		held  []reserved
		out   = make([]OrderLine, 0, len(lines))
		total int
	)

	for _, l := range lines {
		p, err := e.Inventory.Get(ctx, l.ProductID)
		if err != nil {
			e.rollback(held)
			if errors.Is(err, inventory.ErrProductNotFound) {
				return Order{}, &ProductNotFoundError{ProductID: l.ProductID}
			}
			return Order{}, fmt.Errorf("look up product %s: %w", l.ProductID, err)
		}

		if _, err := e.Inventory.Reserve(ctx, l.ProductID, l.Quantity); err != nil {
			e.rollback(held)
			var short *inventory.InsufficientStockError
			if errors.As(err, &short) {
				return Order{}, short
			}
			if errors.Is(err, inventory.ErrProductNotFound) {
				return Order{}, &ProductNotFoundError{ProductID: l.ProductID}
			}
			return Order{}, fmt.Errorf("reserve product %s: %w", l.ProductID, err)
		}
		held = append(held, reserved{productID: l.ProductID, qty: l.Quantity})

		out = append(out, OrderLine{ProductID: p.ID, Quantity: l.Quantity, PriceCents: p.PriceCents})
		total += p.PriceCents * l.Quantity
	}

	o := Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Lines:      out,
		TotalCents: total,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Ledger.Create(ctx, o); err != nil {
		e.rollback(held)
		return Order{}, fmt.Errorf("persist order: %w", err)
	}
	return o, nil
}

// rollback releases held reservations in reverse. It runs on a fresh context
// because the order's own context may already be expired; a failed release
// leaves stock decremented with no matching order, which cannot be repaired
// here and is logged for out-of-band reconciliation.
func (e *Engine) rollback(held []reserved) {
	if len(held) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		r := held[i]
		if err := e.Inventory.Release(ctx, r.productID, r.qty); err != nil {
			log.Printf("RECONCILE: release failed product=%s qty=%d: %v", r.productID, r.qty, err)
		}
	}
}
