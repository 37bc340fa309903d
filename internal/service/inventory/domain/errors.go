package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when no stock record matches a lookup.
	ErrRecordNotFound = errors.New("stock record not found")

	// ErrVersionConflict is returned by the repository when a versioned
	// update lost the race. The ledger retries on it.
	ErrVersionConflict = errors.New("stock record version conflict")
)

// InsufficientStockError means the requested quantity exceeds what is
// available. It names the offending product so the caller can surface it.
type InsufficientStockError struct {
	ProductID string
	VariantID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantID != "" {
		return fmt.Sprintf("insufficient stock for product %s variant %s: requested %d, available %d",
			e.ProductID, e.VariantID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidReleaseError is an internal invariant violation: releasing or
// restoring quantities that could never have been reserved. Always a bug.
type InvalidReleaseError struct {
	RecordID  uint64
	Requested int
	Reserved  int
}

func (e *InvalidReleaseError) Error() string {
	return fmt.Sprintf("invalid release on stock record %d: requested %d with %d reserved",
		e.RecordID, e.Requested, e.Reserved)
}
