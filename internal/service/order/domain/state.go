package domain

// Status is the fulfillment lifecycle of an order. It is deliberately a
// separate state machine from PaymentStatus: payment events never advance
// fulfillment, and fulfillment transitions only consult payment state as an
// authorization precondition.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string { return string(s) }

// statusTransitions is the full transition table for Status. Cancelled is
// absent on purpose: cancellation goes through Order.Cancel so stock is
// restored alongside the state change.
var statusTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true},
	StatusProcessing: {StatusShipped: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the fulfillment machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	return statusTransitions[s][next]
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment lifecycle, orthogonal to Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string { return string(p) }

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// CanTransitionTo reports whether the payment machine allows p -> next.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions[p][next]
}

// Valid reports whether p is a known payment status value.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
