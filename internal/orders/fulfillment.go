package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	kafkax "github.com/merchkit/storefront/internal/kafka"
	"github.com/merchkit/storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// StatusStore is the slice of Repo the fulfillment consumer needs.
type StatusStore interface {
	UpdateStatus(ctx context.Context, orderID string, to Status) error
}

// FulfillmentService applies externally produced fulfillment events to order
// status, deduplicating by event id.
type FulfillmentService struct {
	Store       StatusStore
	Redis       *redis.Client
	ServiceName string
}

func (s *FulfillmentService) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != EventOrderFulfillment {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if s.Redis != nil {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[OrderFulfillmentPayload](env.Payload)
	if err != nil {
		return err
	}

	err = s.Store.UpdateStatus(ctx, p.OrderID, p.Status)
	switch {
	case errors.Is(err, ErrBadTransition):
		// stale or out-of-order event; commit the offset, nothing to retry
		log.Printf("fulfillment: drop %s -> %s for order %s", env.EventID, p.Status, p.OrderID)
	case errors.Is(err, ErrNotFound):
		log.Printf("fulfillment: unknown order %s in event %s", p.OrderID, env.EventID)
	case err != nil:
		return err
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		// refresh the cached status used by GET /api/orders/{id}
		if err == nil {
			skey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
			_ = s.Redis.Set(ctx, skey, fmt.Sprintf(`{"status":%q}`, p.Status), redisx.TTLStatusCache).Err()
		}
	}
	return nil
}
