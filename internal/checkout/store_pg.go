package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// errIdempotencyRace signals that another request with the same idempotency
// key committed between our pre-check and our insert.
var errIdempotencyRace = errors.New("idempotency key already used")

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (s *PGStore) FindByIdempotencyKey(ctx context.Context, key string) (PlacedOrder, bool, error) {
	var po PlacedOrder
	err := s.DB.QueryRow(ctx, `
		SELECT o.id, o.total_cents, p.status
		FROM orders o
		JOIN payments p ON p.order_id = o.id
		WHERE o.idempotency_key = $1`, key).
		Scan(&po.OrderID, &po.TotalCents, &po.PaymentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return PlacedOrder{}, false, nil
	}
	if err != nil {
		return PlacedOrder{}, false, err
	}
	return po, true, nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) PriceProducts(ctx context.Context, productIDs []string) (map[string]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, price_cents FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]int64, len(productIDs))
	for rows.Next() {
		var id string
		var price int64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, o OrderRecord) error {
	var key any
	if o.IdempotencyKey != "" {
		key = o.IdempotencyKey
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, address_id, idempotency_key, status, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.AddressID, key, o.Status, o.TotalCents)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "orders_idempotency_key_key" {
		return errIdempotencyRace
	}
	return err
}

func (t *pgTx) InsertLineItem(ctx context.Context, orderID string, l Line) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, qty, price_cents)
		VALUES ($1, $2, $3, $4)`,
		orderID, l.ProductID, l.Qty, l.PriceCents)
	return err
}

// ReserveStock is the single conditional write of the inventory ledger: the
// guard lives in the WHERE clause, so there is no check-then-act window.
func (t *pgTx) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $2, updated_at = now()
		WHERE product_id = $1 AND quantity >= $2`,
		productID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) PaymentExists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1)`, orderID).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertPayment(ctx context.Context, p PaymentRecord) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount_cents, method, status, transaction_ref)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.OrderID, p.AmountCents, p.Method, p.Status, p.TransactionRef)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicatePayment
	}
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
