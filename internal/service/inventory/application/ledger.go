package application

import (
	"context"
	"errors"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/metrics"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// casRetries bounds the optimistic-lock retry loop. Exceeding it under normal
// load means a pathologically hot record; fail the call rather than spin.
const casRetries = 5

// StockLedger is the single owner of stock mutation. Every component that
// needs to change quantities goes through it; everything else holds only
// product identifiers. Each operation reloads the record, applies the entity
// mutator and writes back with a versioned compare-and-set, retrying on
// conflict, so two checkouts racing for the last unit cannot both succeed.
type StockLedger struct {
	repo    domain.StockRepository
	tracer  trace.Tracer
	alerter *StockAlerter
}

func NewStockLedger(repo domain.StockRepository, tracer trace.Tracer, alerter *StockAlerter) *StockLedger {
	return &StockLedger{repo: repo, tracer: tracer, alerter: alerter}
}

// GetAvailable sums on_hand - reserved across matching records. An empty
// location means all locations for the product/variant.
func (l *StockLedger) GetAvailable(ctx context.Context, productID, variantID, location string) (int, error) {
	records, err := l.repo.FindByProduct(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range records {
		if location != "" && records[i].Location != location {
			continue
		}
		total += records[i].Available()
	}
	return total, nil
}

// CreateRecord stocks a product at a location for the first time.
func (l *StockLedger) CreateRecord(ctx context.Context, record *domain.StockRecord) error {
	if record.Reserved != 0 || record.OnHand < 0 {
		return &domain.InvalidReleaseError{RecordID: record.ID, Requested: record.Reserved, Reserved: record.Reserved}
	}
	return l.repo.Create(ctx, record)
}

// Reserve earmarks quantity on one record.
func (l *StockLedger) Reserve(ctx context.Context, recordID uint64, quantity int) (*domain.StockRecord, error) {
	return l.mutate(ctx, "ledger.Reserve", recordID, func(r *domain.StockRecord) error {
		return r.Reserve(quantity)
	})
}

// Release gives back a reservation.
func (l *StockLedger) Release(ctx context.Context, recordID uint64, quantity int) (*domain.StockRecord, error) {
	return l.mutate(ctx, "ledger.Release", recordID, func(r *domain.StockRecord) error {
		return r.Release(quantity)
	})
}

// Deduct commits a reservation, permanently removing stock, and evaluates the
// low-stock alert rule on the resulting state.
func (l *StockLedger) Deduct(ctx context.Context, recordID uint64, quantity int) (*domain.StockRecord, error) {
	record, err := l.mutate(ctx, "ledger.Deduct", recordID, func(r *domain.StockRecord) error {
		return r.Deduct(quantity)
	})
	if err != nil {
		return nil, err
	}
	if l.alerter != nil {
		l.alerter.Evaluate(ctx, record)
	}
	return record, nil
}

// Restore reverses a prior Deduct.
func (l *StockLedger) Restore(ctx context.Context, recordID uint64, quantity int) (*domain.StockRecord, error) {
	return l.mutate(ctx, "ledger.Restore", recordID, func(r *domain.StockRecord) error {
		return r.Restore(quantity)
	})
}

// AdjustOnHand receives new inventory into an existing record.
func (l *StockLedger) AdjustOnHand(ctx context.Context, recordID uint64, delta int) (*domain.StockRecord, error) {
	return l.mutate(ctx, "ledger.AdjustOnHand", recordID, func(r *domain.StockRecord) error {
		return r.AdjustOnHand(delta)
	})
}

func (l *StockLedger) mutate(ctx context.Context, op string, recordID uint64, fn func(*domain.StockRecord) error) (*domain.StockRecord, error) {
	ctx, span := l.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int64("stock.record_id", int64(recordID)))

	for attempt := 0; attempt < casRetries; attempt++ {
		record, err := l.repo.FindByID(ctx, recordID)
		if err != nil {
			return nil, err
		}
		expected := record.Version
		if err := fn(record); err != nil {
			return nil, err
		}
		err = l.repo.UpdateWithVersion(ctx, record, expected)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		metrics.StockCASConflictsTotal.Inc()
		logger.Ctx(ctx).Debug().
			Uint64("record_id", recordID).
			Int("attempt", attempt+1).
			Msg("stock record version conflict, retrying")
	}
	return nil, domain.ErrVersionConflict
}
