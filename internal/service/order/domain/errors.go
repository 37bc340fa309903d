package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no line items.
	ErrEmptyCart = errors.New("checkout requires a non-empty cart")

	// ErrOrderNotFound is returned when no order matches a lookup.
	ErrOrderNotFound = errors.New("order not found")

	// ErrConcurrentModification is returned by the repository when a guarded
	// update found the order already changed by another writer.
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// InvalidTransitionError rejects an illegal state-machine jump. It is raised
// before any mutation, so the order is left completely unchanged.
type InvalidTransitionError struct {
	Machine string // "status" or "payment_status"
	From    string
	To      string
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s transition %s -> %s: %s", e.Machine, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid %s transition %s -> %s", e.Machine, e.From, e.To)
}
