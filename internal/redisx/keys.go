package redisx

import "time"

const (
	// Shortcut for retried place-order requests: idem:order:place:{idempotency_key} -> order_id.
	// The unique column on orders stays the source of truth.
	KeyIdemPlaceOrder = "idem:order:place:%s"

	// Cached order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for consumed fulfillment events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
