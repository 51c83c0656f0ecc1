package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrder covers everything the caller got wrong before any
	// storage work: empty cart, missing fields, unknown payment method.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNoValidProducts means pricing dropped every requested item.
	ErrNoValidProducts = fmt.Errorf("%w: no valid products", ErrInvalidOrder)

	ErrDuplicatePayment = errors.New("payment already recorded for this order")
)

// InsufficientStockError is a normal business outcome, not a fault. It names
// the first product whose reservation failed.
type InsufficientStockError struct {
	ProductID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}
