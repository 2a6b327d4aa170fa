package stockwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/msmelab/go-commerce/internal/kafka"

	"github.com/msmelab/go-commerce/internal/inventory"
	"github.com/msmelab/go-commerce/internal/orders"
	"github.com/msmelab/go-commerce/internal/redisx"
)

// ProductGetter is the slice of the inventory store this service reads.
type ProductGetter interface {
	Get(ctx context.Context, productID string) (inventory.Product, error)
}

// Service watches order.placed events and warns when a product's remaining
// stock has fallen to or below the threshold.
type Service struct {
	Inventory ProductGetter
	Redis     *redis.Client
	Threshold int
}

// HandleOrderPlaced is mounted as the consumer handler.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	// dedup by event id so a redelivered message does not double-log
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, ln := range p.Lines {
		prod, err := s.Inventory.Get(ctx, ln.ProductID)
		if errors.Is(err, inventory.ErrProductNotFound) {
			// product removed since the order was placed; nothing to watch
			continue
		}
		if err != nil {
			return err
		}
		if prod.Stock <= s.Threshold {
			log.Printf("low stock: product=%s name=%q remaining=%d threshold=%d order=%s",
				prod.ID, prod.Name, prod.Stock, s.Threshold, p.OrderID)
		}
	}
	return nil
}
