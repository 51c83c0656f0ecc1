package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/merchkit/storefront/internal/orders"
)

// Coordinator owns the order-placement transaction: header, line items,
// inventory reservation and payment record are written as one atomic unit of
// work. Any failure before Commit rolls back every write, so the caller only
// ever sees a fully committed order id or an error.
type Coordinator struct {
	Store Store
}

func (c *Coordinator) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error) {
	if in.UserID == "" {
		return PlaceOrderResult{}, invalidf("missing user")
	}
	if len(in.Items) == 0 {
		return PlaceOrderResult{}, invalidf("cart is empty")
	}
	if in.AddressID == "" {
		return PlaceOrderResult{}, invalidf("missing shipping address")
	}
	method, err := ParseMethod(in.PaymentMethod)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	// Retried request? The unique column is the source of truth.
	if in.IdempotencyKey != "" {
		if prev, found, err := c.Store.FindByIdempotencyKey(ctx, in.IdempotencyKey); err != nil {
			return PlaceOrderResult{}, fmt.Errorf("idempotency lookup: %w", err)
		} else if found {
			return replay(prev), nil
		}
	}

	res, err := c.placeOnce(ctx, in, method)
	if errors.Is(err, errIdempotencyRace) {
		// Lost the race against a concurrent retry; its committed order is
		// the answer.
		prev, found, lerr := c.Store.FindByIdempotencyKey(ctx, in.IdempotencyKey)
		if lerr != nil || !found {
			return PlaceOrderResult{}, fmt.Errorf("idempotency lookup after conflict: %w", lerr)
		}
		return replay(prev), nil
	}
	return res, err
}

func (c *Coordinator) placeOnce(ctx context.Context, in PlaceOrderInput, method Method) (PlaceOrderResult, error) {
	tx, err := c.Store.Begin(ctx)
	if err != nil {
		return PlaceOrderResult{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	prices, err := tx.PriceProducts(ctx, ids)
	if err != nil {
		return PlaceOrderResult{}, fmt.Errorf("price lookup: %w", err)
	}
	lines, total, err := ResolveItems(prices, in.Items)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	orderID := uuid.NewString()
	if err := tx.InsertOrder(ctx, OrderRecord{
		ID:             orderID,
		UserID:         in.UserID,
		AddressID:      in.AddressID,
		IdempotencyKey: in.IdempotencyKey,
		Status:         string(orders.StatusPlaced),
		TotalCents:     total,
	}); err != nil {
		if errors.Is(err, errIdempotencyRace) {
			return PlaceOrderResult{}, err
		}
		return PlaceOrderResult{}, fmt.Errorf("insert order: %w", err)
	}

	// Line items and reservations in client-submitted order; the first
	// failed reservation aborts the whole transaction.
	for _, l := range lines {
		if err := tx.InsertLineItem(ctx, orderID, l); err != nil {
			return PlaceOrderResult{}, fmt.Errorf("insert line item: %w", err)
		}
		ok, err := tx.ReserveStock(ctx, l.ProductID, l.Qty)
		if err != nil {
			return PlaceOrderResult{}, fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			return PlaceOrderResult{}, &InsufficientStockError{ProductID: l.ProductID, Requested: l.Qty}
		}
	}

	exists, err := tx.PaymentExists(ctx, orderID)
	if err != nil {
		return PlaceOrderResult{}, fmt.Errorf("payment check: %w", err)
	}
	if exists {
		return PlaceOrderResult{}, ErrDuplicatePayment
	}
	status := method.PaymentStatus()
	if err := tx.InsertPayment(ctx, PaymentRecord{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		AmountCents:    total,
		Method:         string(method),
		Status:         status,
		TransactionRef: newTransactionRef(),
	}); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			return PlaceOrderResult{}, err
		}
		return PlaceOrderResult{}, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return PlaceOrderResult{}, fmt.Errorf("commit: %w", err)
	}
	return PlaceOrderResult{
		OrderID:       orderID,
		TotalCents:    total,
		PaymentStatus: status,
		Lines:         lines,
	}, nil
}

func replay(prev PlacedOrder) PlaceOrderResult {
	return PlaceOrderResult{
		OrderID:       prev.OrderID,
		TotalCents:    prev.TotalCents,
		PaymentStatus: prev.PaymentStatus,
		Idempotent:    true,
	}
}
