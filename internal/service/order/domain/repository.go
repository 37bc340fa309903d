package domain

import "context"

// OrderRepository persists the order aggregate. Implemented by the GORM
// adapter in the infrastructure layer.
type OrderRepository interface {
	// Create persists the order and its line items atomically.
	Create(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus writes status, cancel reason and timestamps guarded by the
	// expected current status, enforcing single-writer-at-a-time per order.
	// Returns ErrConcurrentModification when the guard misses.
	UpdateStatus(ctx context.Context, order *Order, expected Status) error

	// UpdatePayment writes payment status guarded by the expected current
	// payment status. Never touches the fulfillment status column.
	UpdatePayment(ctx context.Context, order *Order, expected PaymentStatus) error
}
