package port

import "context"

// Locker serializes writers on one resource (an order) across instances.
// Status updates and cancellation run under it, so admin actions racing on
// the same order are applied one at a time.
type Locker interface {
	WithLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error
}
