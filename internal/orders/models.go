package orders

import "time"

type Status string

const (
	// StatusPending is the status every persisted order starts in. Rejected
	// orders are never persisted; they only surface as errors.
	StatusPending Status = "Pending"
)

// LineRequest is one requested (product, quantity) pair. Duplicate product
// ids within one order are allowed and treated as independent reservations.
type LineRequest struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// OrderLine is a reserved line with the unit price captured at order time.
type OrderLine struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int    `json:"price_cents"`
}

type Order struct {
	ID         string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int         `json:"total_price"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}
