package adapter

import (
	"context"
	"encoding/json"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/mq"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// AuditKafkaAdapter implements port.AuditTrail by publishing events to the
// audit topic. The audit consumer owns storage and retention.
type AuditKafkaAdapter struct {
	writer *kafka.Writer
}

func NewAuditKafkaAdapter(writer *kafka.Writer) *AuditKafkaAdapter {
	return &AuditKafkaAdapter{writer: writer}
}

func (a *AuditKafkaAdapter) Record(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal audit event")
	}
	// Keyed by entity id so one entity's trail stays ordered per partition.
	return errors.Wrap(mq.ProduceMessage(ctx, a.writer, []byte(event.EntityID), payload), "publish audit event")
}

func (a *AuditKafkaAdapter) Close() error {
	return a.writer.Close()
}
