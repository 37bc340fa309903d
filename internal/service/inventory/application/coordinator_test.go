package application

import (
	"context"
	"testing"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestCoordinator(repo *memStockRepo) *ReservationCoordinator {
	ledger := newTestLedger(repo)
	return NewReservationCoordinator(ledger, repo, noop.NewTracerProvider().Tracer("test"))
}

func TestReserveAllHappyPath(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	b := seedRecord(t, repo, "p-2", "v-1", "main", 5)
	coordinator := newTestCoordinator(repo)

	ticket, err := coordinator.ReserveAll(context.Background(), []ItemRequest{
		{ProductID: "p-1", Quantity: 3},
		{ProductID: "p-2", VariantID: "v-1", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, ticket.Entries, 2)

	assert.Equal(t, 3, repo.get(a).Reserved)
	assert.Equal(t, 2, repo.get(b).Reserved)
}

func TestReserveAllIsAllOrNothing(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	b := seedRecord(t, repo, "p-2", "", "main", 1)
	coordinator := newTestCoordinator(repo)

	_, err := coordinator.ReserveAll(context.Background(), []ItemRequest{
		{ProductID: "p-1", Quantity: 3},
		{ProductID: "p-2", Quantity: 2}, // only 1 on hand
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p-2", insufficient.ProductID)

	assert.Equal(t, 0, repo.get(a).Reserved, "first line must not stay reserved")
	assert.Equal(t, 0, repo.get(b).Reserved)
}

func TestReserveAllRollsBackOnRaceLoss(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	b := seedRecord(t, repo, "p-2", "", "main", 2)
	ledger := newTestLedger(&stealingRepo{memStockRepo: repo, target: b})
	coordinator := NewReservationCoordinator(ledger, repo, noop.NewTracerProvider().Tracer("test"))

	_, err := coordinator.ReserveAll(context.Background(), []ItemRequest{
		{ProductID: "p-1", Quantity: 3},
		{ProductID: "p-2", Quantity: 2},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	assert.Equal(t, 0, repo.get(a).Reserved, "reservation made before the race loss must be released")
}

func TestFulfillAllDeducts(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	coordinator := newTestCoordinator(repo)
	ctx := context.Background()

	ticket, err := coordinator.ReserveAll(ctx, []ItemRequest{{ProductID: "p-1", Quantity: 4}})
	require.NoError(t, err)
	require.NoError(t, coordinator.FulfillAll(ctx, ticket))

	record := repo.get(a)
	assert.Equal(t, 6, record.OnHand)
	assert.Equal(t, 0, record.Reserved)
}

func TestReleaseAllAfterReserve(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	coordinator := newTestCoordinator(repo)
	ctx := context.Background()

	ticket, err := coordinator.ReserveAll(ctx, []ItemRequest{{ProductID: "p-1", Quantity: 4}})
	require.NoError(t, err)
	coordinator.ReleaseAll(ctx, ticket)

	record := repo.get(a)
	assert.Equal(t, 10, record.OnHand)
	assert.Equal(t, 0, record.Reserved)
}

func TestRestoreAllReversesFulfillment(t *testing.T) {
	repo := newMemStockRepo()
	a := seedRecord(t, repo, "p-1", "", "main", 10)
	coordinator := newTestCoordinator(repo)
	ctx := context.Background()

	ticket, err := coordinator.ReserveAll(ctx, []ItemRequest{{ProductID: "p-1", Quantity: 4}})
	require.NoError(t, err)
	require.NoError(t, coordinator.FulfillAll(ctx, ticket))
	require.NoError(t, coordinator.RestoreAll(ctx, ticket))

	record := repo.get(a)
	assert.Equal(t, 10, record.OnHand)
	assert.Equal(t, 0, record.Reserved)
}

func TestReserveAllPrefersLocationWithStock(t *testing.T) {
	repo := newMemStockRepo()
	seedRecord(t, repo, "p-1", "", "east", 1)
	west := seedRecord(t, repo, "p-1", "", "west", 10)
	coordinator := newTestCoordinator(repo)

	ticket, err := coordinator.ReserveAll(context.Background(), []ItemRequest{{ProductID: "p-1", Quantity: 5}})
	require.NoError(t, err)
	require.Len(t, ticket.Entries, 1)
	assert.Equal(t, west, ticket.Entries[0].RecordID)
}

func TestReserveAllReportsTotalAvailable(t *testing.T) {
	repo := newMemStockRepo()
	seedRecord(t, repo, "p-1", "", "east", 2)
	seedRecord(t, repo, "p-1", "", "west", 3)
	coordinator := newTestCoordinator(repo)

	_, err := coordinator.ReserveAll(context.Background(), []ItemRequest{{ProductID: "p-1", Quantity: 9}})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available, "error sums availability across locations")
}

func TestResolveTicket(t *testing.T) {
	repo := newMemStockRepo()
	first := seedRecord(t, repo, "p-1", "", "east", 5)
	seedRecord(t, repo, "p-1", "", "west", 5)
	coordinator := newTestCoordinator(repo)

	ticket, err := coordinator.ResolveTicket(context.Background(), []ItemRequest{{ProductID: "p-1", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, ticket.Entries, 1)
	assert.Equal(t, first, ticket.Entries[0].RecordID)
	assert.Equal(t, 2, ticket.Entries[0].Quantity)

	_, err = coordinator.ResolveTicket(context.Background(), []ItemRequest{{ProductID: "missing", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

// stealingRepo simulates a concurrent checkout draining the target record
// between the pre-check and the reserve pass.
type stealingRepo struct {
	*memStockRepo
	target uint64
	stolen bool
}

func (r *stealingRepo) FindByID(ctx context.Context, id uint64) (*domain.StockRecord, error) {
	if id == r.target && !r.stolen {
		r.stolen = true
		record, err := r.memStockRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := record.Version
		if err := record.Reserve(record.Available()); err != nil {
			return nil, err
		}
		if err := r.memStockRepo.UpdateWithVersion(ctx, record, expected); err != nil {
			return nil, err
		}
	}
	return r.memStockRepo.FindByID(ctx, id)
}
