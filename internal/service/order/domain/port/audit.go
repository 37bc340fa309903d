package port

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"
)

// AuditTrail receives one event per state-changing operation. Recording is
// fire-and-forget: a failure to log must never block the operation itself.
type AuditTrail interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}
