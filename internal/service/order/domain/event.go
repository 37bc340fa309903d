package domain

import "time"

// AuditEvent is emitted to the audit trail for every state-changing
// operation. The audit consumer owns storage; this is only the contract.
type AuditEvent struct {
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notification event types consumed by the notification service and the
// websocket feed.
const (
	EventOrderPlaced     = "order.placed"
	EventOrderStatus     = "order.status_changed"
	EventOrderCancelled  = "order.cancelled"
	EventPaymentRecorded = "payment.recorded"
	EventLowStock        = "stock.low"
)

// NotificationEvent is published best-effort after a successful commit.
type NotificationEvent struct {
	Type       string         `json:"type"`
	OrderID    string         `json:"order_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Message    string         `json:"message,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
