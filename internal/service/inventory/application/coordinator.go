package application

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/metrics"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ItemRequest is one requested (product/variant, quantity) pair. Requests are
// processed in the order given, so failures are reproducible.
type ItemRequest struct {
	ProductID string
	VariantID string
	Quantity  int
}

// TicketEntry records one reservation made against a concrete stock record.
type TicketEntry struct {
	RecordID uint64
	Quantity int
}

// ReservationTicket is the value object returned by ReserveAll and consumed
// by exactly one of FulfillAll, ReleaseAll or RestoreAll. Its lifecycle
// documents which phase an order is in without inspecting order status.
type ReservationTicket struct {
	Entries []TicketEntry
}

// ReservationCoordinator performs all-or-nothing reservations across a
// multi-line order request. Either every line item is reserved or none are;
// partial reservations are rolled back before the error is returned.
type ReservationCoordinator struct {
	ledger *StockLedger
	repo   domain.StockRepository
	tracer trace.Tracer
}

func NewReservationCoordinator(ledger *StockLedger, repo domain.StockRepository, tracer trace.Tracer) *ReservationCoordinator {
	return &ReservationCoordinator{ledger: ledger, repo: repo, tracer: tracer}
}

// ReserveAll reserves every item or nothing. The pre-check pass fails fast on
// the first item short of stock; the reserve pass can still lose a race, in
// which case everything reserved so far is released before returning.
func (c *ReservationCoordinator) ReserveAll(ctx context.Context, items []ItemRequest) (*ReservationTicket, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.ReserveAll")
	defer span.End()
	span.SetAttributes(attribute.Int("reservation.items", len(items)))

	// Pre-check pass: no mutation until every line looks satisfiable.
	resolved := make([]uint64, len(items))
	for i, item := range items {
		record, err := c.resolve(ctx, item)
		if err != nil {
			metrics.StockRejectionsTotal.Inc()
			span.RecordError(err)
			return nil, err
		}
		resolved[i] = record.ID
	}

	ticket := &ReservationTicket{Entries: make([]TicketEntry, 0, len(items))}
	for i, item := range items {
		if _, err := c.ledger.Reserve(ctx, resolved[i], item.Quantity); err != nil {
			// A concurrent checkout won the race after our pre-check.
			metrics.StockRejectionsTotal.Inc()
			span.RecordError(err)
			c.ReleaseAll(ctx, ticket)
			return nil, err
		}
		ticket.Entries = append(ticket.Entries, TicketEntry{RecordID: resolved[i], Quantity: item.Quantity})
	}
	return ticket, nil
}

// ReleaseAll returns every reserved quantity. Used when order persistence
// fails after reservation, or on cancellation before fulfillment. Release
// failures are integrity bugs; they are logged loudly and the loop continues
// so one bad entry does not strand the rest.
func (c *ReservationCoordinator) ReleaseAll(ctx context.Context, ticket *ReservationTicket) {
	ctx, span := c.tracer.Start(ctx, "coordinator.ReleaseAll")
	defer span.End()

	for _, entry := range ticket.Entries {
		if _, err := c.ledger.Release(ctx, entry.RecordID, entry.Quantity); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Uint64("record_id", entry.RecordID).
				Int("quantity", entry.Quantity).
				Msg("CRITICAL: failed to release reservation")
			span.RecordError(err)
		}
	}
}

// FulfillAll commits every reservation on the ticket. This is the point where
// stock is permanently reduced.
func (c *ReservationCoordinator) FulfillAll(ctx context.Context, ticket *ReservationTicket) error {
	ctx, span := c.tracer.Start(ctx, "coordinator.FulfillAll")
	defer span.End()

	for _, entry := range ticket.Entries {
		if _, err := c.ledger.Deduct(ctx, entry.RecordID, entry.Quantity); err != nil {
			// Deducting a held reservation can only fail on corrupted data.
			logger.Ctx(ctx).Error().Err(err).
				Uint64("record_id", entry.RecordID).
				Int("quantity", entry.Quantity).
				Msg("CRITICAL: failed to fulfill reservation")
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// RestoreAll puts fulfilled quantities back on hand; used when cancelling an
// already-fulfilled order.
func (c *ReservationCoordinator) RestoreAll(ctx context.Context, ticket *ReservationTicket) error {
	ctx, span := c.tracer.Start(ctx, "coordinator.RestoreAll")
	defer span.End()

	for _, entry := range ticket.Entries {
		if _, err := c.ledger.Restore(ctx, entry.RecordID, entry.Quantity); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Uint64("record_id", entry.RecordID).
				Int("quantity", entry.Quantity).
				Msg("CRITICAL: failed to restore stock")
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// ResolveTicket rebuilds a ticket for an order's items when the original
// in-memory ticket is gone (cancellation in a later request). Restores land
// on the first record for each product/variant in location order, mirroring
// how ReserveAll resolves records when no location holds enough available
// stock to distinguish them.
func (c *ReservationCoordinator) ResolveTicket(ctx context.Context, items []ItemRequest) (*ReservationTicket, error) {
	ticket := &ReservationTicket{Entries: make([]TicketEntry, 0, len(items))}
	for _, item := range items {
		records, err := c.repo.FindByProduct(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, domain.ErrRecordNotFound
		}
		ticket.Entries = append(ticket.Entries, TicketEntry{RecordID: records[0].ID, Quantity: item.Quantity})
	}
	return ticket, nil
}

// resolve picks the stock record for one line item: the first record, in
// location order, with enough available quantity.
func (c *ReservationCoordinator) resolve(ctx context.Context, item ItemRequest) (*domain.StockRecord, error) {
	records, err := c.repo.FindByProduct(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return nil, err
	}
	available := 0
	for i := range records {
		if records[i].CanReserve(item.Quantity) {
			return &records[i], nil
		}
		available += records[i].Available()
	}
	return nil, &domain.InsufficientStockError{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Requested: item.Quantity,
		Available: available,
	}
}
