package application

import (
	"context"
	"errors"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/logger"
	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/metrics"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain/port"

	inventory "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"
	inventorydomain "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StockCoordinator is the slice of the reservation coordinator the lifecycle
// needs. Satisfied by inventory/application.ReservationCoordinator.
type StockCoordinator interface {
	ReserveAll(ctx context.Context, items []inventory.ItemRequest) (*inventory.ReservationTicket, error)
	ReleaseAll(ctx context.Context, ticket *inventory.ReservationTicket)
	FulfillAll(ctx context.Context, ticket *inventory.ReservationTicket) error
	RestoreAll(ctx context.Context, ticket *inventory.ReservationTicket) error
	ResolveTicket(ctx context.Context, items []inventory.ItemRequest) (*inventory.ReservationTicket, error)
}

// OrderLifecycle orchestrates checkout, status advancement, payment recording
// and cancellation. It is the only writer of order state; all stock movement
// goes through the coordinator.
type OrderLifecycle struct {
	orderRepo   domain.OrderRepository
	coordinator StockCoordinator
	cart        port.CartService
	audit       port.AuditTrail
	notifier    port.NotificationProducer
	locker      port.Locker
	tracer      trace.Tracer
}

func NewOrderLifecycle(
	orderRepo domain.OrderRepository,
	coordinator StockCoordinator,
	cart port.CartService,
	audit port.AuditTrail,
	notifier port.NotificationProducer,
	locker port.Locker,
	tracer trace.Tracer,
) *OrderLifecycle {
	return &OrderLifecycle{
		orderRepo:   orderRepo,
		coordinator: coordinator,
		cart:        cart,
		audit:       audit,
		notifier:    notifier,
		locker:      locker,
		tracer:      tracer,
	}
}

// Checkout turns the user's cart into an order: reserve stock for every line
// item, persist the order, then fulfill the reservation. Stock is deducted
// here, at order creation, not at payment confirmation; that mirrors the
// system this replaced and is a deliberate policy, not an accident.
//
// Failure behavior: an insufficient-stock or persistence failure leaves the
// cart and all stock records exactly as they were. If the process dies after
// the order row commits but before fulfillment, stock is still reserved and
// the order can be fulfilled or released by hand; no stock is ever deducted
// without an order row.
func (s *OrderLifecycle) Checkout(ctx context.Context, req *CheckoutRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))
	start := time.Now()

	items, err := s.cart.GetLineItems(ctx, req.UserID)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		metrics.CheckoutsTotal.WithLabelValues("empty_cart").Inc()
		return nil, domain.ErrEmptyCart
	}

	order, err := domain.NewOrder(req.UserID, req.ShippingAddressID, items)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	ticket, err := s.coordinator.ReserveAll(ctx, toItemRequests(items))
	if err != nil {
		var insufficient *inventorydomain.InsufficientStockError
		if errors.As(err, &insufficient) {
			metrics.CheckoutsTotal.WithLabelValues("insufficient_stock").Inc()
		} else {
			metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock reservation failed")
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// Order creation is all-or-nothing with respect to stock.
		s.coordinator.ReleaseAll(ctx, ticket)
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "order persistence failed")
		return nil, err
	}

	if err := s.coordinator.FulfillAll(ctx, ticket); err != nil {
		// Order row exists and stock is still reserved: recoverable by hand.
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", order.ID).
			Msg("CRITICAL: order persisted but fulfillment failed, stock left reserved")
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}

	if err := s.cart.Clear(ctx, req.UserID); err != nil {
		// The order is committed; a stale cart is an annoyance, not a fault.
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("failed to clear cart after checkout")
	}

	s.recordAudit(ctx, domain.AuditEvent{
		Action:     "order.checkout",
		EntityType: "order",
		EntityID:   order.ID,
		After:      order,
		ActorID:    actorOf(req.ActorID, req.UserID),
		Timestamp:  time.Now().UTC(),
	})
	s.publish(ctx, domain.NotificationEvent{
		Type:       domain.EventOrderPlaced,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Message:    "Your order " + order.OrderNumber + " has been placed.",
		OccurredAt: time.Now().UTC(),
	})

	metrics.CheckoutsTotal.WithLabelValues("created").Inc()
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Float64("total", order.TotalAmount).
		Msg("order placed")
	return order, nil
}

// GetOrder fetches one order with its line items.
func (s *OrderLifecycle) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

// UpdateStatus advances the fulfillment machine under the per-order lock.
func (s *OrderLifecycle) UpdateStatus(ctx context.Context, orderID string, next domain.Status, actorID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.next_status", next.String()))

	var updated *domain.Order
	err := s.locker.WithLock(ctx, orderID, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := order.Status
		if err := order.AdvanceTo(next); err != nil {
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, order, before); err != nil {
			return err
		}

		s.recordAudit(ctx, domain.AuditEvent{
			Action:     "order.status_changed",
			EntityType: "order",
			EntityID:   order.ID,
			Before:     before.String(),
			After:      order.Status.String(),
			ActorID:    actorID,
			Timestamp:  time.Now().UTC(),
		})
		s.publish(ctx, domain.NotificationEvent{
			Type:       domain.EventOrderStatus,
			OrderID:    order.ID,
			UserID:     order.UserID,
			Data:       map[string]any{"from": before.String(), "to": order.Status.String()},
			OccurredAt: time.Now().UTC(),
		})
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

// RecordPayment is the single entry point the payment gateway callback
// reaches. It validates the payment machine on its own and never writes the
// fulfillment status; the gateway is trusted to have verified authenticity.
func (s *OrderLifecycle) RecordPayment(ctx context.Context, orderID string, next domain.PaymentStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.RecordPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("payment.next_status", next.String()))

	var updated *domain.Order
	err := s.locker.WithLock(ctx, orderID, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := order.PaymentStatus
		if err := order.RecordPayment(next); err != nil {
			return err
		}
		if err := s.orderRepo.UpdatePayment(ctx, order, before); err != nil {
			return err
		}

		s.recordAudit(ctx, domain.AuditEvent{
			Action:     "order.payment_recorded",
			EntityType: "order",
			EntityID:   order.ID,
			Before:     before.String(),
			After:      order.PaymentStatus.String(),
			ActorID:    "payment-gateway",
			Timestamp:  time.Now().UTC(),
		})
		s.publish(ctx, domain.NotificationEvent{
			Type:       domain.EventPaymentRecorded,
			OrderID:    order.ID,
			UserID:     order.UserID,
			Data:       map[string]any{"payment_status": order.PaymentStatus.String()},
			OccurredAt: time.Now().UTC(),
		})
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

// Cancel cancels a pending or processing order and puts its stock back on
// hand. The status flip is persisted first under a guarded update, so even a
// racing second cancel that slipped past the lock cannot trigger a second
// restore; the restore then reverses the deduction made at checkout.
func (s *OrderLifecycle) Cancel(ctx context.Context, orderID, reason, actorID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var updated *domain.Order
	err := s.locker.WithLock(ctx, orderID, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := order.Status
		if err := order.Cancel(reason); err != nil {
			metrics.CancellationsTotal.WithLabelValues("invalid_transition").Inc()
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, order, before); err != nil {
			metrics.CancellationsTotal.WithLabelValues("error").Inc()
			return err
		}

		ticket, err := s.coordinator.ResolveTicket(ctx, toItemRequests(order.Items))
		if err == nil {
			err = s.coordinator.RestoreAll(ctx, ticket)
		}
		if err != nil {
			// The order is already cancelled; stock restoration has to be
			// reconciled by hand. Loud log, no rollback of the cancel.
			logger.Ctx(ctx).Error().Err(err).
				Str("order_id", order.ID).
				Msg("CRITICAL: order cancelled but stock restoration failed")
		}

		s.recordAudit(ctx, domain.AuditEvent{
			Action:     "order.cancelled",
			EntityType: "order",
			EntityID:   order.ID,
			Before:     before.String(),
			After:      order.Status.String(),
			ActorID:    actorID,
			Timestamp:  time.Now().UTC(),
		})
		s.publish(ctx, domain.NotificationEvent{
			Type:       domain.EventOrderCancelled,
			OrderID:    order.ID,
			UserID:     order.UserID,
			Message:    "Your order " + order.OrderNumber + " has been cancelled.",
			Data:       map[string]any{"reason": reason},
			OccurredAt: time.Now().UTC(),
		})
		metrics.CancellationsTotal.WithLabelValues("ok").Inc()
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

func (s *OrderLifecycle) recordAudit(ctx context.Context, event domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("action", event.Action).Msg("failed to record audit event")
	}
}

func (s *OrderLifecycle) publish(ctx context.Context, event domain.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("type", event.Type).Msg("failed to publish notification")
	}
}

func actorOf(actorID, fallback string) string {
	if actorID != "" {
		return actorID
	}
	return fallback
}
