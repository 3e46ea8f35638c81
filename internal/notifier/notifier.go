// Package notifier tails the order lifecycle topics and keeps the per-order
// status cache warm, so status polls rarely touch Postgres.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/motobook/backend/internal/kafka"
	"github.com/motobook/backend/internal/orders"
	"github.com/motobook/backend/internal/redisx"
)

type Notifier struct {
	Redis   *redis.Client
	Service string
}

// Handle implements kafkax.Handler. Returning nil commits the offset, so
// malformed events are logged and dropped rather than retried forever.
func (n *Notifier) Handle(ctx context.Context, m kafkago.Message) error {
	var ev orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &ev); err != nil {
		log.Printf("notifier: dropping malformed event: %v", err)
		return nil
	}

	// At-least-once delivery: skip events we have already applied.
	dedupKey := fmt.Sprintf(redisx.KeyDedup, n.Service, ev.EventID)
	fresh, err := n.Redis.SetNX(ctx, dedupKey, 1, redisx.TTLDedup).Result()
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		return nil
	}

	switch ev.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](ev.Payload)
		if err != nil {
			log.Printf("notifier: %v", err)
			return nil
		}
		n.cacheStatus(ctx, p.OrderID, orders.StatusPending)
		log.Printf("order %d created for restaurant %q, total %s",
			p.OrderID, p.RestaurantName, p.TotalAmount)

	case orders.EventStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](ev.Payload)
		if err != nil {
			log.Printf("notifier: %v", err)
			return nil
		}
		n.cacheStatus(ctx, p.OrderID, p.NewStatus)
		if p.RiderID != nil {
			log.Printf("order %d: %s -> %s (rider %d)", p.OrderID, p.OldStatus, p.NewStatus, *p.RiderID)
		} else {
			log.Printf("order %d: %s -> %s", p.OrderID, p.OldStatus, p.NewStatus)
		}

	default:
		log.Printf("notifier: ignoring event type %q", ev.EventType)
	}
	return nil
}

func (n *Notifier) cacheStatus(ctx context.Context, orderID int64, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, _ := json.Marshal(map[string]any{"status": status})
	if err := n.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		log.Printf("notifier: cache status for order %d: %v", orderID, err)
	}
}
