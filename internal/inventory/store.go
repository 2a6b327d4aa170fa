package inventory

import (
	"context"
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError reports a reservation that asked for more units than
// the product had at the moment the conditional decrement ran.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available=%d requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// Store is the inventory contract the fulfillment engine runs against.
//
// Reserve checks stock >= qty and decrements in one atomic step; concurrent
// reservations on the same product are serialized by the store, so stock can
// never go negative and no decrement sees a stale value. Release is the
// compensating increment used to undo a partial reservation.
type Store interface {
	Get(ctx context.Context, productID string) (Product, error)
	Reserve(ctx context.Context, productID string, qty int) (newStock int, err error)
	Release(ctx context.Context, productID string, qty int) error
}
