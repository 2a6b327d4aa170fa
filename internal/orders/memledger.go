package orders

import (
	"context"
	"sync"
)

// MemLedger is an in-memory Ledger for tests.
type MemLedger struct {
	mu     sync.Mutex
	orders []Order

	// FailNext makes the next Create return this error, once.
	FailNext error
}

func NewMemLedger() *MemLedger { return &MemLedger{} }

func (l *MemLedger) Create(ctx context.Context, o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailNext != nil {
		err := l.FailNext
		l.FailNext = nil
		return err
	}
	l.orders = append(l.orders, o)
	return nil
}

func (l *MemLedger) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Order
	for _, o := range l.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// All returns every persisted order, oldest first.
func (l *MemLedger) All() []Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Order, len(l.orders))
	copy(out, l.orders)
	return out
}
