package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LineItem is one product/variant + quantity entry within an order. Price and
// quantity are snapshotted at checkout and frozen thereafter, decoupled from
// the live catalog.
type LineItem struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice float64
}

// Order is the aggregate root for a purchase intent. Status and PaymentStatus
// are two independent state machines; see state.go.
type Order struct {
	ID                string
	OrderNumber       string
	UserID            string
	Status            Status
	PaymentStatus     PaymentStatus
	Items             []LineItem
	TotalAmount       float64
	ShippingAddressID string
	CancelReason      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewOrder builds a pending order from cart line items, validating them and
// computing the total from the snapshotted prices.
func NewOrder(userID, shippingAddressID string, items []LineItem) (*Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("order requires a user id")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	total := 0.0
	for _, item := range items {
		if item.ProductID == "" {
			return nil, fmt.Errorf("line item is missing a product id")
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("line item quantity for product %s must be positive", item.ProductID)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("line item price for product %s cannot be negative", item.ProductID)
		}
		total += float64(item.Quantity) * item.UnitPrice
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	return &Order{
		ID:                id,
		OrderNumber:       newOrderNumber(now, id),
		UserID:            userID,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		Items:             items,
		TotalAmount:       total,
		ShippingAddressID: shippingAddressID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// newOrderNumber yields a unique human-readable number like
// ORD-20260829-1A2B3C4D.
func newOrderNumber(at time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), short)
}

// AdvanceTo moves the fulfillment machine forward. Shipping additionally
// requires the order to be paid, which is an authorization precondition on
// this machine, not a coupling of the two.
func (o *Order) AdvanceTo(next Status) error {
	if !next.Valid() || next == StatusCancelled {
		return &InvalidTransitionError{
			Machine: "status",
			From:    o.Status.String(),
			To:      next.String(),
			Reason:  "cancellation must go through cancel",
		}
	}
	if !o.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{Machine: "status", From: o.Status.String(), To: next.String()}
	}
	if next == StatusShipped && o.PaymentStatus != PaymentPaid {
		return &InvalidTransitionError{
			Machine: "status",
			From:    o.Status.String(),
			To:      next.String(),
			Reason:  "order must be paid before shipping",
		}
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordPayment moves the payment machine. It never writes Status: the
// fulfillment lifecycle is advanced only by explicit AdvanceTo calls.
func (o *Order) RecordPayment(next PaymentStatus) error {
	if !next.Valid() {
		return &InvalidTransitionError{Machine: "payment_status", From: o.PaymentStatus.String(), To: next.String()}
	}
	if !o.PaymentStatus.CanTransitionTo(next) {
		return &InvalidTransitionError{Machine: "payment_status", From: o.PaymentStatus.String(), To: next.String()}
	}
	o.PaymentStatus = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel marks the order cancelled. Only pending and processing orders can be
// cancelled through this path; a second cancel fails here, which is what
// keeps stock restoration from running twice.
func (o *Order) Cancel(reason string) error {
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return &InvalidTransitionError{Machine: "status", From: o.Status.String(), To: StatusCancelled.String()}
	}
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}
