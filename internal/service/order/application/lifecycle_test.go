package application

import (
	"context"
	"errors"
	"testing"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/metrics"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	inventory "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"
	inventorydomain "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// --- fakes -----------------------------------------------------------------

type memOrderRepo struct {
	orders    map[string]*domain.Order
	createErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, order *domain.Order, expected domain.Status) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Status != expected {
		return domain.ErrConcurrentModification
	}
	stored.Status = order.Status
	stored.CancelReason = order.CancelReason
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *memOrderRepo) UpdatePayment(_ context.Context, order *domain.Order, expected domain.PaymentStatus) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.PaymentStatus != expected {
		return domain.ErrConcurrentModification
	}
	stored.PaymentStatus = order.PaymentStatus
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

// fakeCoordinator records which coordinator operations ran, in order.
type fakeCoordinator struct {
	calls      []string
	reserveErr error
	fulfillErr error
	restoreErr error
}

func (c *fakeCoordinator) ReserveAll(_ context.Context, items []inventory.ItemRequest) (*inventory.ReservationTicket, error) {
	c.calls = append(c.calls, "reserve")
	if c.reserveErr != nil {
		return nil, c.reserveErr
	}
	ticket := &inventory.ReservationTicket{}
	for i, item := range items {
		ticket.Entries = append(ticket.Entries, inventory.TicketEntry{RecordID: uint64(i + 1), Quantity: item.Quantity})
	}
	return ticket, nil
}

func (c *fakeCoordinator) ReleaseAll(_ context.Context, _ *inventory.ReservationTicket) {
	c.calls = append(c.calls, "release")
}

func (c *fakeCoordinator) FulfillAll(_ context.Context, _ *inventory.ReservationTicket) error {
	c.calls = append(c.calls, "fulfill")
	return c.fulfillErr
}

func (c *fakeCoordinator) RestoreAll(_ context.Context, _ *inventory.ReservationTicket) error {
	c.calls = append(c.calls, "restore")
	return c.restoreErr
}

func (c *fakeCoordinator) ResolveTicket(_ context.Context, items []inventory.ItemRequest) (*inventory.ReservationTicket, error) {
	c.calls = append(c.calls, "resolve")
	ticket := &inventory.ReservationTicket{}
	for i, item := range items {
		ticket.Entries = append(ticket.Entries, inventory.TicketEntry{RecordID: uint64(i + 1), Quantity: item.Quantity})
	}
	return ticket, nil
}

type fakeCart struct {
	items    []domain.LineItem
	getErr   error
	clearErr error
	cleared  int
}

func (c *fakeCart) GetLineItems(_ context.Context, _ string) ([]domain.LineItem, error) {
	return c.items, c.getErr
}
func (c *fakeCart) AddItem(_ context.Context, _ string, _ domain.LineItem) error { return nil }
func (c *fakeCart) RemoveItem(_ context.Context, _, _, _ string) error           { return nil }
func (c *fakeCart) Clear(_ context.Context, _ string) error {
	c.cleared++
	return c.clearErr
}

type fakeAudit struct {
	events []domain.AuditEvent
}

func (a *fakeAudit) Record(_ context.Context, event domain.AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

type fakeNotifier struct {
	events []domain.NotificationEvent
}

func (n *fakeNotifier) Publish(_ context.Context, event domain.NotificationEvent) error {
	n.events = append(n.events, event)
	return nil
}

type passthroughLocker struct {
	locked []string
}

func (l *passthroughLocker) WithLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	l.locked = append(l.locked, resourceID)
	return fn(ctx)
}

type lifecycleFixture struct {
	lifecycle   *OrderLifecycle
	repo        *memOrderRepo
	coordinator *fakeCoordinator
	cart        *fakeCart
	audit       *fakeAudit
	notifier    *fakeNotifier
	locker      *passthroughLocker
}

func newFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		repo: newMemOrderRepo(),
		coordinator: &fakeCoordinator{},
		cart: &fakeCart{items: []domain.LineItem{
			{ProductID: "p-1", Quantity: 2, UnitPrice: 10},
			{ProductID: "p-2", VariantID: "v-1", Quantity: 1, UnitPrice: 5},
		}},
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
		locker:   &passthroughLocker{},
	}
	f.lifecycle = NewOrderLifecycle(
		f.repo, f.coordinator, f.cart, f.audit, f.notifier, f.locker,
		noop.NewTracerProvider().Tracer("test"),
	)
	return f
}

// --- checkout --------------------------------------------------------------

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture()

	order, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1", ShippingAddressID: "addr-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.InDelta(t, 25.0, order.TotalAmount, 0.001)
	assert.Equal(t, []string{"reserve", "fulfill"}, f.coordinator.calls)
	assert.Equal(t, 1, f.cart.cleared)

	stored, err := f.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "order.checkout", f.audit.events[0].Action)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.EventOrderPlaced, f.notifier.events[0].Type)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()
	f.cart.items = nil

	_, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.coordinator.calls, "no stock may move for an empty cart")
	assert.Zero(t, f.cart.cleared)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture()
	f.coordinator.reserveErr = &inventorydomain.InsufficientStockError{ProductID: "p-1", Requested: 2, Available: 1}

	_, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	var insufficient *inventorydomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	assert.Equal(t, []string{"reserve"}, f.coordinator.calls, "no fulfill, no release needed")
	assert.Empty(t, f.repo.orders, "no order row may exist")
	assert.Zero(t, f.cart.cleared, "cart must survive a failed checkout")
	assert.Empty(t, f.audit.events)
}

func TestCheckoutMetricDistinguishesStockFromInfraErrors(t *testing.T) {
	insufficientCounter := metrics.CheckoutsTotal.WithLabelValues("insufficient_stock")
	errorCounter := metrics.CheckoutsTotal.WithLabelValues("error")

	f := newFixture()
	f.coordinator.reserveErr = errors.New("dial tcp: connection refused")
	insufficientBefore := testutil.ToFloat64(insufficientCounter)
	errorBefore := testutil.ToFloat64(errorCounter)

	_, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, insufficientBefore, testutil.ToFloat64(insufficientCounter), "infra failure must not count as stock rejection")
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(errorCounter))

	f = newFixture()
	f.coordinator.reserveErr = &inventorydomain.InsufficientStockError{ProductID: "p-1", Requested: 2, Available: 1}
	insufficientBefore = testutil.ToFloat64(insufficientCounter)

	_, err = f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, insufficientBefore+1, testutil.ToFloat64(insufficientCounter))
}

func TestCheckoutPersistenceFailureReleasesStock(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("connection reset")

	_, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.Error(t, err)

	assert.Equal(t, []string{"reserve", "release"}, f.coordinator.calls)
	assert.Zero(t, f.cart.cleared)
	assert.Empty(t, f.notifier.events)
}

func TestCheckoutFulfillFailureKeepsOrder(t *testing.T) {
	f := newFixture()
	f.coordinator.fulfillErr = errors.New("corrupted record")

	_, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.Error(t, err)

	assert.Equal(t, []string{"reserve", "fulfill"}, f.coordinator.calls, "reservation stays for manual recovery")
	assert.Len(t, f.repo.orders, 1, "order row is kept")
	assert.Zero(t, f.cart.cleared)
}

func TestCheckoutClearFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.cart.clearErr = errors.New("redis down")

	order, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.NoError(t, err, "a stale cart must not fail the committed order")
	assert.NotNil(t, order)
}

// --- status updates --------------------------------------------------------

func checkoutOrder(t *testing.T, f *lifecycleFixture) *domain.Order {
	t.Helper()
	order, err := f.lifecycle.Checkout(context.Background(), &CheckoutRequest{UserID: "user-1"})
	require.NoError(t, err)
	return order
}

func TestUpdateStatusAdvances(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)

	updated, err := f.lifecycle.UpdateStatus(context.Background(), order.ID, domain.StatusProcessing, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.Status)
	assert.Contains(t, f.locker.locked, order.ID)

	stored, _ := f.repo.FindByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
}

func TestUpdateStatusRejectsSkippedSteps(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)

	_, err := f.lifecycle.UpdateStatus(context.Background(), order.ID, domain.StatusDelivered, "admin-1")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	stored, _ := f.repo.FindByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusPending, stored.Status, "rejected update must not persist anything")
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture()
	_, err := f.lifecycle.UpdateStatus(context.Background(), "no-such-order", domain.StatusProcessing, "admin-1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// --- payment ---------------------------------------------------------------

func TestRecordPaymentDoesNotTouchStatus(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)
	require.Equal(t, domain.StatusPending, order.Status)

	updated, err := f.lifecycle.RecordPayment(context.Background(), order.ID, domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, domain.StatusPending, updated.Status, "payment must never advance fulfillment")

	stored, _ := f.repo.FindByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
}

func TestRecordPaymentInvalidJump(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)

	_, err := f.lifecycle.RecordPayment(context.Background(), order.ID, domain.PaymentRefunded)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "payment_status", invalid.Machine)
}

// --- cancellation ----------------------------------------------------------

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)
	f.coordinator.calls = nil
	f.notifier.events = nil

	cancelled, err := f.lifecycle.Cancel(context.Background(), order.ID, "changed my mind", "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Equal(t, []string{"resolve", "restore"}, f.coordinator.calls)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.EventOrderCancelled, f.notifier.events[0].Type)
}

func TestDoubleCancelRestoresOnce(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)
	f.coordinator.calls = nil

	_, err := f.lifecycle.Cancel(context.Background(), order.ID, "first", "user-1")
	require.NoError(t, err)

	_, err = f.lifecycle.Cancel(context.Background(), order.ID, "second", "user-1")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	assert.Equal(t, []string{"resolve", "restore"}, f.coordinator.calls, "stock must be restored exactly once")
	stored, _ := f.repo.FindByID(context.Background(), order.ID)
	assert.Equal(t, "first", stored.CancelReason)
}

func TestCancelShippedOrderFails(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)
	require.NoError(t, mustPay(f, order.ID))
	_, err := f.lifecycle.UpdateStatus(context.Background(), order.ID, domain.StatusProcessing, "admin-1")
	require.NoError(t, err)
	_, err = f.lifecycle.UpdateStatus(context.Background(), order.ID, domain.StatusShipped, "admin-1")
	require.NoError(t, err)
	f.coordinator.calls = nil

	_, err = f.lifecycle.Cancel(context.Background(), order.ID, "too late", "user-1")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, f.coordinator.calls, "no stock may move for a rejected cancel")
}

func TestCancelRestoreFailureKeepsCancellation(t *testing.T) {
	f := newFixture()
	order := checkoutOrder(t, f)
	f.coordinator.restoreErr = errors.New("record corrupted")

	cancelled, err := f.lifecycle.Cancel(context.Background(), order.ID, "reason", "user-1")
	require.NoError(t, err, "restore failure is reconciled by hand, not rolled back")
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func mustPay(f *lifecycleFixture, orderID string) error {
	_, err := f.lifecycle.RecordPayment(context.Background(), orderID, domain.PaymentPaid)
	return err
}
