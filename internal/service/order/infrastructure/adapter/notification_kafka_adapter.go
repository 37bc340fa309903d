package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/mq"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	inventory "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// NotificationKafkaAdapter implements port.NotificationProducer and the
// inventory alert sink on the notifications topic. The notification service
// (email/Telegram) and the websocket feed both consume it.
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) Publish(ctx context.Context, event domain.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal notification event")
	}
	key := event.OrderID
	if key == "" {
		key = event.UserID
	}
	return errors.Wrap(mq.ProduceMessage(ctx, a.writer, []byte(key), payload), "publish notification event")
}

// PublishLowStock satisfies inventory/application.AlertSink.
func (a *NotificationKafkaAdapter) PublishLowStock(ctx context.Context, alert inventory.LowStockAlert) error {
	return a.Publish(ctx, domain.NotificationEvent{
		Type:    domain.EventLowStock,
		Message: "Stock is low for product " + alert.ProductID,
		Data: map[string]any{
			"product_id": alert.ProductID,
			"variant_id": alert.VariantID,
			"location":   alert.Location,
			"available":  alert.Available,
			"on_hand":    alert.OnHand,
		},
		OccurredAt: time.Now().UTC(),
	})
}

func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
