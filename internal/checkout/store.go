package checkout

import "context"

// Store hands out transactional sessions for one order-placement call each.
// The session is released on every exit path via Tx.Rollback (a no-op after
// Commit).
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// FindByIdempotencyKey returns the committed order previously created
	// with this key, if any.
	FindByIdempotencyKey(ctx context.Context, key string) (PlacedOrder, bool, error)
}

// PlacedOrder is the committed result looked up for a retried request.
type PlacedOrder struct {
	OrderID       string
	TotalCents    int64
	PaymentStatus string
}

// Tx is one atomic unit of work. Nothing written through it is visible
// before Commit.
type Tx interface {
	// PriceProducts returns authoritative unit prices for the ids that exist.
	PriceProducts(ctx context.Context, productIDs []string) (map[string]int64, error)

	InsertOrder(ctx context.Context, o OrderRecord) error
	InsertLineItem(ctx context.Context, orderID string, l Line) error

	// ReserveStock runs the single conditional decrement; false means
	// insufficient stock.
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)

	PaymentExists(ctx context.Context, orderID string) (bool, error)
	InsertPayment(ctx context.Context, p PaymentRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
