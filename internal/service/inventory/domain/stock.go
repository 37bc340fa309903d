package domain

import (
	"math"
	"time"
)

// StockRecord tracks quantity state for one (product, variant, location)
// tuple. It is the only shared mutable resource in the system; every mutation
// goes through the StockLedger, which persists entity changes with a versioned
// compare-and-set so concurrent reservations cannot both take the last unit.
//
// Invariant: 0 <= Reserved <= OnHand at all times.
type StockRecord struct {
	ID                uint64
	ProductID         string
	VariantID         string
	Location          string
	OnHand            int
	Reserved          int
	LowStockThreshold int
	ReorderLevel      int
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Available is the quantity sellable right now.
func (s *StockRecord) Available() int {
	return s.OnHand - s.Reserved
}

// CanReserve reports whether quantity can be earmarked without violating the
// invariant.
func (s *StockRecord) CanReserve(quantity int) bool {
	return quantity > 0 && s.Available() >= quantity
}

// Reserve earmarks quantity for an in-flight order. OnHand is untouched.
func (s *StockRecord) Reserve(quantity int) error {
	if !s.CanReserve(quantity) {
		return &InsufficientStockError{
			ProductID: s.ProductID,
			VariantID: s.VariantID,
			Requested: quantity,
			Available: s.Available(),
		}
	}
	s.Reserved += quantity
	s.touch()
	return nil
}

// Release gives back a prior reservation. Releasing more than is reserved is
// a data-integrity bug, never a user error.
func (s *StockRecord) Release(quantity int) error {
	if quantity <= 0 || s.Reserved < quantity {
		return &InvalidReleaseError{
			RecordID:  s.ID,
			Requested: quantity,
			Reserved:  s.Reserved,
		}
	}
	s.Reserved -= quantity
	s.touch()
	return nil
}

// Deduct commits a reservation, permanently removing stock. It is the only
// operation that lowers OnHand.
func (s *StockRecord) Deduct(quantity int) error {
	if quantity <= 0 || s.Reserved < quantity || s.OnHand < quantity {
		return &InsufficientStockError{
			ProductID: s.ProductID,
			VariantID: s.VariantID,
			Requested: quantity,
			Available: s.Reserved,
		}
	}
	s.Reserved -= quantity
	s.OnHand -= quantity
	s.touch()
	return nil
}

// Restore reverses a prior Deduct (order cancellation after fulfillment).
// There is no upper bound beyond overflow sanity.
func (s *StockRecord) Restore(quantity int) error {
	if quantity <= 0 || s.OnHand > math.MaxInt32-quantity {
		return &InvalidReleaseError{
			RecordID:  s.ID,
			Requested: quantity,
			Reserved:  s.Reserved,
		}
	}
	s.OnHand += quantity
	s.touch()
	return nil
}

// AdjustOnHand applies a signed receiving/correction delta. The result may
// not dip below what is currently reserved.
func (s *StockRecord) AdjustOnHand(delta int) error {
	if delta > 0 && s.OnHand > math.MaxInt32-delta {
		return &InvalidReleaseError{RecordID: s.ID, Requested: delta, Reserved: s.Reserved}
	}
	next := s.OnHand + delta
	if next < s.Reserved || next < 0 {
		return &InsufficientStockError{
			ProductID: s.ProductID,
			VariantID: s.VariantID,
			Requested: -delta,
			Available: s.Available(),
		}
	}
	s.OnHand = next
	s.touch()
	return nil
}

func (s *StockRecord) touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
