package port

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"
)

// NotificationProducer publishes order events for the notification service
// (email/Telegram) and the live feed. Best-effort, invoked after commit.
type NotificationProducer interface {
	Publish(ctx context.Context, event domain.NotificationEvent) error
}
