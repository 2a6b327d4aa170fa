package orders

import "context"

// Ledger is the append-only order store. Create persists the order and all
// its lines together or not at all.
type Ledger interface {
	Create(ctx context.Context, o Order) error
	ListForUser(ctx context.Context, userID string) ([]Order, error)
}
