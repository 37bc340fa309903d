package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutsTotal counts checkout attempts by result
	// (created | insufficient_stock | empty_cart | error).
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})

	// StockRejectionsTotal counts line items rejected for insufficient stock.
	StockRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_rejections_total",
		Help: "Line items rejected because available stock was insufficient.",
	})

	// CancellationsTotal counts order cancellations by result (ok | invalid_transition | error).
	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cancellations_total",
		Help: "Order cancellation attempts by result.",
	}, []string{"result"})

	// StockCASConflictsTotal counts optimistic-lock retries on stock records.
	// A persistently climbing rate means contention on a hot product.
	StockCASConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_cas_conflicts_total",
		Help: "Version conflicts hit while updating stock records.",
	})

	// CheckoutDuration observes end-to-end checkout latency.
	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end checkout latency.",
		Buckets: prometheus.DefBuckets,
	})

	// LowStockAlertsTotal counts fired low-stock alerts.
	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low-stock alert rule matches.",
	})
)
