package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/msmelab/go-commerce/internal/kafka"

	"github.com/msmelab/go-commerce/internal/inventory"
	"github.com/msmelab/go-commerce/internal/orders"
	"github.com/msmelab/go-commerce/internal/redisx"
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID string, lines []orders.LineRequest) (orders.Order, error)
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Engine   OrderPlacer
	Ledger   orders.Ledger
	Producer EventPublisher // optional
	Redis    *redis.Client  // optional status cache
	Tokens   TokenVerifier
	Service  string
}

type CreateOrderResp struct {
	OrderID    string `json:"orderId"`
	TotalPrice int    `json:"total_price"`
	Status     string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Tokens))
		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders", h.listOrders)
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var req CreateOrderReq
	if !decodeValid(w, r, &req) {
		return
	}
	lines := make([]orders.LineRequest, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, orders.LineRequest{ProductID: p.ID, Quantity: p.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.PlaceOrder(ctx, userID, lines)
	if err != nil {
		var notFound *orders.ProductNotFoundError
		var short *inventory.InsufficientStockError
		var badQty *orders.InvalidQuantityError
		switch {
		case errors.As(err, &notFound), errors.As(err, &short),
			errors.As(err, &badQty), errors.Is(err, orders.ErrEmptyOrder):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			writeMessage(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if h.Redis != nil {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
		_ = h.Redis.Set(ctx, statusKey, `{"status":"Pending"}`, redisx.TTLStatusCache).Err()
	}

	if h.Producer != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderPlaced,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: o.ID,
			Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
				OrderID:    o.ID,
				UserID:     o.UserID,
				Lines:      o.Lines,
				TotalCents: o.TotalCents,
			}),
		}
		h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusCreated, CreateOrderResp{
		OrderID:    o.ID,
		TotalPrice: o.TotalCents,
		Status:     string(o.Status),
	})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Ledger.ListForUser(ctx, userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}
