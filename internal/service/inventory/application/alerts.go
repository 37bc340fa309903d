package application

import (
	"context"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/httpclient"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/metrics"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/google/cel-go/cel"
)

// LowStockAlert is published when the alert rule matches a record after a
// deduction.
type LowStockAlert struct {
	RecordID          uint64    `json:"record_id"`
	ProductID         string    `json:"product_id"`
	VariantID         string    `json:"variant_id,omitempty"`
	Location          string    `json:"location"`
	OnHand            int       `json:"on_hand"`
	Reserved          int       `json:"reserved"`
	Available         int       `json:"available"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	ReorderLevel      int       `json:"reorder_level"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// AlertSink receives fired alerts (the kafka notification adapter).
type AlertSink interface {
	PublishLowStock(ctx context.Context, alert LowStockAlert) error
}

// StockAlerter evaluates an operator-editable CEL expression over a record's
// quantity state after every deduction. On a match it publishes a low-stock
// notification and, when configured, POSTs the ops webhook (the Telegram
// bridge). Alerting is best-effort and never fails the calling operation.
type StockAlerter struct {
	program    cel.Program
	sink       AlertSink
	webhook    *httpclient.Client
	webhookURL string
}

// NewStockAlerter compiles the rule. Rules see the variables on_hand,
// reserved, available, low_stock_threshold and reorder_level as ints. An
// empty rule returns a nil alerter, disabling alerting.
func NewStockAlerter(rule string, sink AlertSink, webhook *httpclient.Client, webhookURL string) (*StockAlerter, error) {
	if rule == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("on_hand", cel.IntType),
		cel.Variable("reserved", cel.IntType),
		cel.Variable("available", cel.IntType),
		cel.Variable("low_stock_threshold", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &StockAlerter{program: program, sink: sink, webhook: webhook, webhookURL: webhookURL}, nil
}

// Evaluate runs the rule against the record's current state and fires the
// sinks on a match.
func (a *StockAlerter) Evaluate(ctx context.Context, record *domain.StockRecord) {
	out, _, err := a.program.Eval(map[string]any{
		"on_hand":             record.OnHand,
		"reserved":            record.Reserved,
		"available":           record.Available(),
		"low_stock_threshold": record.LowStockThreshold,
		"reorder_level":       record.ReorderLevel,
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Uint64("record_id", record.ID).Msg("stock alert rule evaluation failed")
		return
	}
	matched, ok := out.Value().(bool)
	if !ok || !matched {
		return
	}

	metrics.LowStockAlertsTotal.Inc()
	alert := LowStockAlert{
		RecordID:          record.ID,
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		Location:          record.Location,
		OnHand:            record.OnHand,
		Reserved:          record.Reserved,
		Available:         record.Available(),
		LowStockThreshold: record.LowStockThreshold,
		ReorderLevel:      record.ReorderLevel,
		OccurredAt:        time.Now().UTC(),
	}

	if a.sink != nil {
		if err := a.sink.PublishLowStock(ctx, alert); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("product_id", record.ProductID).Msg("failed to publish low stock alert")
		}
	}
	if a.webhook != nil && a.webhookURL != "" {
		if err := a.webhook.PostJSON(ctx, a.webhookURL, alert); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("product_id", record.ProductID).Msg("failed to post low stock webhook")
		}
	}
}
